package migrations

import "talentinsight/common/database/schema"

var CreateDimensionTables = schema.Migration{
	Version:     1,
	Description: "Create dimension tables",
	Up: `
		CREATE TABLE IF NOT EXISTS d_date (
			date_key TEXT PRIMARY KEY,
			day INTEGER NOT NULL,
			month INTEGER NOT NULL,
			quarter INTEGER NOT NULL,
			year INTEGER NOT NULL,
			day_week INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS d_country (
			id_country INTEGER PRIMARY KEY,
			iso2 TEXT NOT NULL UNIQUE,
			country_name TEXT NOT NULL,
			region TEXT,
			currency TEXT
		);
		CREATE TABLE IF NOT EXISTS d_skill (
			id_skill INTEGER PRIMARY KEY,
			skill_group TEXT,
			tech_label TEXT NOT NULL UNIQUE
		);
		CREATE TABLE IF NOT EXISTS d_source (
			id_source INTEGER PRIMARY KEY,
			source_name TEXT NOT NULL UNIQUE
		);
		CREATE TABLE IF NOT EXISTS d_company (
			id_company INTEGER PRIMARY KEY,
			company_name TEXT NOT NULL UNIQUE,
			sector TEXT
		)
	`,
	Down: `
		DROP TABLE IF EXISTS d_company;
		DROP TABLE IF EXISTS d_source;
		DROP TABLE IF EXISTS d_skill;
		DROP TABLE IF EXISTS d_country;
		DROP TABLE IF EXISTS d_date
	`,
}
