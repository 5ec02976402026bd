package applications

const createApplicationsTable = `
CREATE TABLE IF NOT EXISTS loan_applications (
	application_id SERIAL PRIMARY KEY,
	user_id UUID NOT NULL,
	application_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	jpg_file_path VARCHAR(500) NOT NULL,
	status VARCHAR(50) DEFAULT 'pending',
	submitted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (user_id) REFERENCES member_users(user_id) ON DELETE CASCADE
)`

const createStatusHistoryTable = `
CREATE TABLE IF NOT EXISTS loan_application_status_history (
	id SERIAL PRIMARY KEY,
	application_id INTEGER NOT NULL REFERENCES loan_applications(application_id) ON DELETE CASCADE,
	previous_status VARCHAR(50),
	new_status VARCHAR(50) NOT NULL,
	changed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`
