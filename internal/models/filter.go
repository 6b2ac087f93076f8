package models

// Filter describes a task query. Every populated field narrows the result;
// the zero Filter matches everything.
type Filter struct {
	Status      []TaskStatus `json:"status,omitempty"`
	Priority    []Priority   `json:"priority,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	ProjectID   Opt[*string] `json:"projectId,omitzero"`
	AreaID      Opt[*string] `json:"areaId,omitzero"`
	DueDateFrom *string      `json:"dueDateFrom,omitempty"`
	DueDateTo   *string      `json:"dueDateTo,omitempty"`
	HasDate     *bool        `json:"hasDate,omitempty"`
	IsEvening   *bool        `json:"isEvening,omitempty"`
	SearchQuery string       `json:"searchQuery,omitempty"`
}
