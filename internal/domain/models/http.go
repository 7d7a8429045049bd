package models

// Requests for the dashboard HTTP endpoints.

type IndicatorRequest struct {
	ID string `param:"id" json:"id" validate:"required,slug"`
}

type HistoryRequest struct {
	ID    string `param:"id" json:"id" validate:"required,slug"`
	From  string `query:"from" json:"from"`
	To    string `query:"to" json:"to"`
	Limit int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=10000"`
}

type RefreshRequest struct {
	Force bool     `query:"force" form:"force" json:"force"`
	Only  []string `query:"only" form:"only" json:"only" validate:"dive,slug"`
}

type ChartRequest struct {
	ID     string `param:"id" json:"id" validate:"required,slug"`
	Width  int    `query:"width" json:"width" validate:"omitempty,gte=200,lte=2000"`
	Height int    `query:"height" json:"height" validate:"omitempty,gte=150,lte=1500"`
	Points int    `query:"points" json:"points" validate:"omitempty,gte=2,lte=5000"`
}

type ChartGroupRequest struct {
	Group  string `param:"group" json:"group" validate:"required,slug"`
	Width  int    `query:"width" json:"width" validate:"omitempty,gte=200,lte=2000"`
	Height int    `query:"height" json:"height" validate:"omitempty,gte=150,lte=1500"`
}
