package reader

import (
	"encoding/json"
	"strings"
)

// SearchHit is one ranked result from Search.
type SearchHit struct {
	ArxivID    string     `json:"arxiv_id"`
	Title      string     `json:"title"`
	Abstract   string     `json:"abstract"`
	Authors    AuthorList `json:"authors"`
	Categories StringList `json:"categories"`
	Score      float64    `json:"score"`
	Citation   int        `json:"citation"`
	PublishAt  string     `json:"publish_at"`
}

// SearchResponse is the envelope returned by the retrieve endpoint.
type SearchResponse struct {
	Total   int         `json:"total"`
	Took    int         `json:"took"`
	Results []SearchHit `json:"results"`
}

// SectionInfo describes one section in the paper head overview.
type SectionInfo struct {
	Idx        int    `json:"idx"`
	TLDR       string `json:"tldr"`
	TokenCount int    `json:"token_count"`
}

// PaperHead is the metadata record for one paper. Immutable once fetched.
type PaperHead struct {
	ArxivID    string                 `json:"arxiv_id"`
	Title      string                 `json:"title"`
	Abstract   string                 `json:"abstract"`
	Authors    AuthorList             `json:"authors"`
	Sections   map[string]SectionInfo `json:"sections"`
	TokenCount int                    `json:"token_count"`
	Categories StringList             `json:"categories"`
	PublishAt  string                 `json:"publish_at"`
}

// Preview is a truncated view of the paper body.
type Preview struct {
	Content           string `json:"content"`
	IsTruncated       bool   `json:"is_truncated"`
	TotalCharacters   int    `json:"total_characters"`
	PreviewCharacters int    `json:"preview_characters"`
}

// UnmarshalJSON accepts both "content" and the legacy "preview" key.
func (p *Preview) UnmarshalJSON(data []byte) error {
	var raw struct {
		Content           string `json:"content"`
		Preview           string `json:"preview"`
		IsTruncated       bool   `json:"is_truncated"`
		TotalCharacters   int    `json:"total_characters"`
		PreviewCharacters int    `json:"preview_characters"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Content = raw.Content
	if p.Content == "" {
		p.Content = raw.Preview
	}
	p.IsTruncated = raw.IsTruncated
	p.TotalCharacters = raw.TotalCharacters
	p.PreviewCharacters = raw.PreviewCharacters
	return nil
}

// Author is one paper author. The service returns authors either as plain
// strings or as objects carrying affiliations.
type Author struct {
	Name string     `json:"name"`
	Orgs StringList `json:"orgs"`
}

func (a *Author) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		a.Name = name
		return nil
	}

	var raw struct {
		Name string     `json:"name"`
		Orgs StringList `json:"orgs"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.Name = raw.Name
	a.Orgs = raw.Orgs
	return nil
}

// AuthorList tolerates both a JSON array of authors and a single
// comma-separated string of names.
type AuthorList []Author

func (l *AuthorList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var joined string
		if err := json.Unmarshal(data, &joined); err != nil {
			return err
		}
		*l = nil
		for _, name := range strings.Split(joined, ",") {
			if name = strings.TrimSpace(name); name != "" {
				*l = append(*l, Author{Name: name})
			}
		}
		return nil
	}

	var authors []Author
	if err := json.Unmarshal(data, &authors); err != nil {
		return err
	}
	*l = authors
	return nil
}

// Names returns the author names joined with ", ".
func (l AuthorList) Names() string {
	names := make([]string, len(l))
	for i, a := range l {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// StringList tolerates both a JSON array of strings and a single
// comma-separated string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var joined string
		if err := json.Unmarshal(data, &joined); err != nil {
			return err
		}
		*l = nil
		for _, item := range strings.Split(joined, ",") {
			if item = strings.TrimSpace(item); item != "" {
				*l = append(*l, item)
			}
		}
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}
