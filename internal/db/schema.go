package db

import (
	"context"
	"database/sql"
)

// Migrations is the ordered schema history. Append new entries at the end;
// never reorder or rename an entry that has shipped.
var Migrations = []Migration{
	{
		ID:          "001_initial_schema",
		Description: "Create core application tables",
		Up:          execSQL(initialSchema),
	},
	{
		ID:          "002_indexes",
		Description: "Create indexes for common list queries",
		Up:          execSQL(listIndexes),
	},
	{
		ID:          "003_homepage_content",
		Description: "Add homepage_content JSON column to settings",
		Up:          addHomepageContent,
	},
}

const initialSchema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT UNIQUE NOT NULL,
    email TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'editor' CHECK (role <> ''),
    avatar TEXT,
    is_active INTEGER NOT NULL DEFAULT 1,
    last_login TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS products (
    id TEXT PRIMARY KEY,
    name_zh TEXT NOT NULL,
    name_en TEXT NOT NULL,
    description_zh TEXT NOT NULL,
    description_en TEXT NOT NULL,
    category TEXT NOT NULL,
    images TEXT NOT NULL DEFAULT '[]',
    specifications TEXT NOT NULL DEFAULT '[]',
    price REAL,
    featured INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'active',
    sort_order INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS news (
    id TEXT PRIMARY KEY,
    title_zh TEXT NOT NULL,
    title_en TEXT NOT NULL,
    content_zh TEXT NOT NULL,
    content_en TEXT NOT NULL,
    summary_zh TEXT,
    summary_en TEXT,
    category TEXT NOT NULL,
    cover_image TEXT,
    author TEXT NOT NULL DEFAULT 'Admin',
    views INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'published',
    published_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS contacts (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    phone TEXT NOT NULL,
    company TEXT,
    subject TEXT NOT NULL,
    message TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'unread',
    reply TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    id TEXT PRIMARY KEY,
    site_name_zh TEXT DEFAULT '公司名称',
    site_name_en TEXT DEFAULT 'Company Name',
    site_description_zh TEXT DEFAULT '公司简介',
    site_description_en TEXT DEFAULT 'Company Description',
    logo TEXT,
    favicon TEXT,
    address_zh TEXT,
    address_en TEXT,
    phone TEXT,
    email TEXT,
    fax TEXT,
    wechat TEXT,
    weibo TEXT,
    linkedin TEXT,
    facebook TEXT,
    twitter TEXT,
    seo_keywords_zh TEXT,
    seo_keywords_en TEXT,
    seo_description_zh TEXT,
    seo_description_en TEXT,
    about_zh TEXT,
    about_en TEXT,
    banners TEXT DEFAULT '[]',
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS categories (
    id TEXT PRIMARY KEY,
    name_zh TEXT NOT NULL,
    name_en TEXT NOT NULL,
    type TEXT NOT NULL,
    slug TEXT UNIQUE NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const listIndexes = `
CREATE INDEX IF NOT EXISTS idx_products_status_category
    ON products (status, category);

CREATE INDEX IF NOT EXISTS idx_products_featured_sort
    ON products (featured, sort_order, created_at);

CREATE INDEX IF NOT EXISTS idx_news_status_category_published
    ON news (status, category, published_at);

CREATE INDEX IF NOT EXISTS idx_contacts_status_created
    ON contacts (status, created_at);
`

func execSQL(stmts string) func(context.Context, *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, stmts)
		return err
	}
}

// addHomepageContent checks for the column first: SQLite has no
// ADD COLUMN IF NOT EXISTS.
func addHomepageContent(ctx context.Context, tx *sql.Tx) error {
	exists, err := columnExists(ctx, tx, "settings", "homepage_content")
	if err != nil {
		return err
	}
	if !exists {
		if _, err := tx.ExecContext(ctx, `ALTER TABLE settings ADD COLUMN homepage_content TEXT DEFAULT '{}'`); err != nil {
			return err
		}
	}
	_, err = tx.ExecContext(ctx, `UPDATE settings SET homepage_content = '{}' WHERE homepage_content IS NULL`)
	return err
}

func columnExists(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
