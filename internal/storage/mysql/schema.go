package mysql

// Timestamps are fixed-width RFC3339 UTC text, matching the SQLite layout.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		email VARCHAR(255) NOT NULL,
		first_name VARCHAR(255) NOT NULL,
		last_name VARCHAR(255) NOT NULL,
		role VARCHAR(32) NOT NULL,
		created_at VARCHAR(40) NOT NULL,
		UNIQUE KEY idx_users_email (email)
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		identifier VARCHAR(64) NOT NULL,
		description TEXT NOT NULL,
		status VARCHAR(32) NOT NULL,
		created_at VARCHAR(40) NOT NULL,
		updated_at VARCHAR(40) NOT NULL,
		UNIQUE KEY idx_projects_identifier (identifier)
	)`,
	`CREATE TABLE IF NOT EXISTS issues (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		project_id VARCHAR(64) NOT NULL,
		tracker VARCHAR(32) NOT NULL,
		subject VARCHAR(1024) NOT NULL,
		description TEXT NOT NULL,
		status VARCHAR(32) NOT NULL,
		priority VARCHAR(32) NOT NULL,
		due_date VARCHAR(40) NULL,
		estimated_hours DOUBLE NULL,
		author_id VARCHAR(64) NOT NULL,
		assignee_id VARCHAR(64) NULL,
		created_at VARCHAR(40) NOT NULL,
		updated_at VARCHAR(40) NOT NULL,
		KEY idx_issues_project (project_id),
		CONSTRAINT fk_issues_project FOREIGN KEY (project_id) REFERENCES projects(id),
		CONSTRAINT fk_issues_author FOREIGN KEY (author_id) REFERENCES users(id),
		CONSTRAINT fk_issues_assignee FOREIGN KEY (assignee_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS time_entries (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		issue_id VARCHAR(64) NOT NULL,
		user_id VARCHAR(64) NOT NULL,
		hours DOUBLE NOT NULL,
		activity_type VARCHAR(64) NOT NULL,
		spent_on VARCHAR(40) NOT NULL,
		comments TEXT NOT NULL,
		created_at VARCHAR(40) NOT NULL,
		KEY idx_time_entries_issue (issue_id),
		CONSTRAINT fk_time_entries_issue FOREIGN KEY (issue_id) REFERENCES issues(id),
		CONSTRAINT fk_time_entries_user FOREIGN KEY (user_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		issue_id VARCHAR(64) NOT NULL,
		author_id VARCHAR(64) NOT NULL,
		content TEXT NOT NULL,
		created_at VARCHAR(40) NOT NULL,
		updated_at VARCHAR(40) NOT NULL,
		KEY idx_comments_issue (issue_id),
		CONSTRAINT fk_comments_issue FOREIGN KEY (issue_id) REFERENCES issues(id),
		CONSTRAINT fk_comments_author FOREIGN KEY (author_id) REFERENCES users(id)
	)`,
}
