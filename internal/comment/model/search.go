package model

type SearchItem struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
	Author   string `json:"author"`
	Snippet  string `json:"snippet"`
	Depth    int    `json:"depth"`
}

type SearchPage struct {
	Items []SearchItem `json:"items"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Total int          `json:"total"`
}
