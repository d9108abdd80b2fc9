//revive:disable-next-line:var-naming // legacy package name used across the project
package model

// AdminDashboard summarizes the whole portal for administrators.
type AdminDashboard struct {
	Users                int                   `json:"users"`
	Departments          int                   `json:"departments"`
	Newsletters          int                   `json:"newsletters"`
	PublishedNewsletters int                   `json:"published_newsletters"`
	ProjectsByStatus     map[ProjectStatus]int `json:"projects_by_status"`
	UnreadMessages       int                   `json:"unread_messages"`
}

// EngineerDashboard summarizes an engineer's own projects.
type EngineerDashboard struct {
	ProjectsByStatus map[ProjectStatus]int `json:"projects_by_status"`
	Recent           []*Project            `json:"recent"`
}
