package migrations

import "talentinsight/common/database/schema"

var CreateFactTables = schema.Migration{
	Version:     2,
	Description: "Create fact tables",
	Up: `
		CREATE TABLE IF NOT EXISTS f_job_offers (
			id_offer INTEGER PRIMARY KEY,
			id_country INTEGER NOT NULL REFERENCES d_country(id_country),
			id_skill INTEGER NOT NULL REFERENCES d_skill(id_skill),
			id_source INTEGER NOT NULL REFERENCES d_source(id_source),
			id_company INTEGER NOT NULL REFERENCES d_company(id_company),
			date_key TEXT NOT NULL REFERENCES d_date(date_key),
			title TEXT,
			location TEXT,
			salary_min REAL,
			salary_max REAL,
			salary_avg REAL,
			salary_imputed INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS f_github_trends (
			id_trend INTEGER PRIMARY KEY,
			id_skill INTEGER NOT NULL REFERENCES d_skill(id_skill),
			id_source INTEGER NOT NULL REFERENCES d_source(id_source),
			date_key TEXT NOT NULL REFERENCES d_date(date_key),
			repo_name TEXT,
			stars INTEGER NOT NULL DEFAULT 0,
			forks INTEGER NOT NULL DEFAULT 0,
			popularity_score REAL NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS f_search_trends (
			id_search INTEGER PRIMARY KEY,
			id_skill INTEGER NOT NULL REFERENCES d_skill(id_skill),
			id_source INTEGER NOT NULL REFERENCES d_source(id_source),
			date_key TEXT NOT NULL REFERENCES d_date(date_key),
			keyword TEXT,
			interest_value INTEGER
		);
		CREATE TABLE IF NOT EXISTS f_survey_responses (
			id_response INTEGER PRIMARY KEY,
			id_country INTEGER NOT NULL REFERENCES d_country(id_country),
			id_source INTEGER NOT NULL REFERENCES d_source(id_source),
			salary REAL,
			years_experience TEXT,
			dev_type TEXT,
			languages_used TEXT
		);
		CREATE TABLE IF NOT EXISTS f_survey_languages (
			id_response INTEGER NOT NULL REFERENCES f_survey_responses(id_response),
			id_skill INTEGER NOT NULL REFERENCES d_skill(id_skill),
			language TEXT NOT NULL,
			PRIMARY KEY (id_response, language)
		)
	`,
	Down: `
		DROP TABLE IF EXISTS f_survey_languages;
		DROP TABLE IF EXISTS f_survey_responses;
		DROP TABLE IF EXISTS f_search_trends;
		DROP TABLE IF EXISTS f_github_trends;
		DROP TABLE IF EXISTS f_job_offers
	`,
}
