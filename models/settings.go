package models

import (
	"encoding/json"
	"time"
)

// Settings is the single-row site configuration edited by admins.
// Banners and HomepageContent are opaque JSON documents owned by the
// front end: an array and an object respectively.
type Settings struct {
	ID              string          `db:"id" json:"_id"`
	SiteName        LocalizedText   `json:"siteName"`
	SiteDescription LocalizedText   `json:"siteDescription"`
	Logo            string          `db:"logo" json:"logo"`
	Favicon         string          `db:"favicon" json:"favicon"`
	Contact         SiteContact     `json:"contact"`
	Social          SocialLinks     `json:"social"`
	SEO             SEO             `json:"seo"`
	About           LocalizedText   `json:"about"`
	Banners         json.RawMessage `db:"banners" json:"banners"`
	HomepageContent json.RawMessage `db:"homepage_content" json:"homepageContent"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
}

// SiteContact is the public contact block.
type SiteContact struct {
	Address LocalizedText `json:"address"`
	Phone   string        `json:"phone"`
	Email   string        `json:"email"`
	Fax     string        `json:"fax"`
}

type SocialLinks struct {
	Wechat   string `json:"wechat"`
	Weibo    string `json:"weibo"`
	Linkedin string `json:"linkedin"`
	Facebook string `json:"facebook"`
	Twitter  string `json:"twitter"`
}

type SEO struct {
	Keywords    LocalizedText `json:"keywords"`
	Description LocalizedText `json:"description"`
}
