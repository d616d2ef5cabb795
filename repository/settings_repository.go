package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"tradeSite/models"
)

const settingsColumns = `id, site_name_zh, site_name_en, site_description_zh, site_description_en, logo, favicon,
	address_zh, address_en, phone, email, fax, wechat, weibo, linkedin, facebook, twitter,
	seo_keywords_zh, seo_keywords_en, seo_description_zh, seo_description_en, about_zh, about_en,
	banners, homepage_content, updated_at`

// SettingsRepository reads and writes the single settings row.
type SettingsRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db, now: time.Now}
}

// Get returns the settings row, creating it with column defaults on first use.
func (r *SettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	s, err := r.get(ctx)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, `INSERT INTO settings (id, updated_at) VALUES (?, ?)`, uuid.NewString(), r.now().UTC()); err != nil {
		return nil, err
	}
	return r.get(ctx)
}

// Update overwrites every editable field of the settings row. Empty strings
// clear their column; nil Banners and HomepageContent reset to [] and {}.
func (r *SettingsRepository) Update(ctx context.Context, s *models.Settings) (*models.Settings, error) {
	if s == nil {
		return nil, errors.New("settings is nil")
	}
	current, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}
	banners := s.Banners
	if len(banners) == 0 || string(banners) == "null" {
		banners = json.RawMessage(`[]`)
	}
	content := s.HomepageContent
	if len(content) == 0 || string(content) == "null" {
		content = json.RawMessage(`{}`)
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err = r.db.ExecContext(ctx, `UPDATE settings SET
		site_name_zh = ?, site_name_en = ?, site_description_zh = ?, site_description_en = ?,
		logo = ?, favicon = ?,
		address_zh = ?, address_en = ?, phone = ?, email = ?, fax = ?,
		wechat = ?, weibo = ?, linkedin = ?, facebook = ?, twitter = ?,
		seo_keywords_zh = ?, seo_keywords_en = ?, seo_description_zh = ?, seo_description_en = ?,
		about_zh = ?, about_en = ?,
		banners = ?, homepage_content = ?, updated_at = ?
		WHERE id = ?`,
		s.SiteName.Zh, s.SiteName.En, s.SiteDescription.Zh, s.SiteDescription.En,
		nullString(s.Logo), nullString(s.Favicon),
		nullString(s.Contact.Address.Zh), nullString(s.Contact.Address.En), nullString(s.Contact.Phone), nullString(s.Contact.Email), nullString(s.Contact.Fax),
		nullString(s.Social.Wechat), nullString(s.Social.Weibo), nullString(s.Social.Linkedin), nullString(s.Social.Facebook), nullString(s.Social.Twitter),
		nullString(s.SEO.Keywords.Zh), nullString(s.SEO.Keywords.En), nullString(s.SEO.Description.Zh), nullString(s.SEO.Description.En),
		nullString(s.About.Zh), nullString(s.About.En),
		string(banners), string(content), r.now().UTC(),
		current.ID)
	if err != nil {
		return nil, err
	}
	return r.get(ctx)
}

func (r *SettingsRepository) get(ctx context.Context) (*models.Settings, error) {
	var s models.Settings
	var nameZh, nameEn, descZh, descEn, logo, favicon sql.NullString
	var addrZh, addrEn, phone, email, fax sql.NullString
	var wechat, weibo, linkedin, facebook, twitter sql.NullString
	var kwZh, kwEn, seoDescZh, seoDescEn, aboutZh, aboutEn sql.NullString
	var banners, content sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT `+settingsColumns+` FROM settings ORDER BY rowid LIMIT 1`).Scan(
		&s.ID, &nameZh, &nameEn, &descZh, &descEn, &logo, &favicon,
		&addrZh, &addrEn, &phone, &email, &fax, &wechat, &weibo, &linkedin, &facebook, &twitter,
		&kwZh, &kwEn, &seoDescZh, &seoDescEn, &aboutZh, &aboutEn,
		&banners, &content, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.SiteName = models.LocalizedText{Zh: nameZh.String, En: nameEn.String}
	s.SiteDescription = models.LocalizedText{Zh: descZh.String, En: descEn.String}
	s.Logo = logo.String
	s.Favicon = favicon.String
	s.Contact = models.SiteContact{
		Address: models.LocalizedText{Zh: addrZh.String, En: addrEn.String},
		Phone:   phone.String,
		Email:   email.String,
		Fax:     fax.String,
	}
	s.Social = models.SocialLinks{
		Wechat:   wechat.String,
		Weibo:    weibo.String,
		Linkedin: linkedin.String,
		Facebook: facebook.String,
		Twitter:  twitter.String,
	}
	s.SEO = models.SEO{
		Keywords:    models.LocalizedText{Zh: kwZh.String, En: kwEn.String},
		Description: models.LocalizedText{Zh: seoDescZh.String, En: seoDescEn.String},
	}
	s.About = models.LocalizedText{Zh: aboutZh.String, En: aboutEn.String}
	s.Banners = jsonOr(banners, `[]`)
	s.HomepageContent = jsonOr(content, `{}`)
	return &s, nil
}

// jsonOr returns the stored document, or fallback when it is NULL or not valid JSON.
func jsonOr(v sql.NullString, fallback string) json.RawMessage {
	if v.Valid && json.Valid([]byte(v.String)) {
		return json.RawMessage(v.String)
	}
	return json.RawMessage(fallback)
}
