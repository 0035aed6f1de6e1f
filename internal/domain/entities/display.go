package entities

// Weather is the current condition shown by the clock widget
type Weather struct {
	Temperature int    `json:"temperature"`
	Condition   string `json:"condition"`
	Icon        string `json:"icon"`
}

// UnavailableWeather is shown when the forecast source cannot be reached
func UnavailableWeather() Weather {
	return Weather{Temperature: 0, Condition: "Unavailable", Icon: "❓"}
}

// WidgetData is one widget of the kiosk payload with its computed data
type WidgetData struct {
	ID          string       `json:"id"`
	WidgetType  WidgetType   `json:"widget_type"`
	Config      WidgetConfig `json:"config"`
	GridColSpan int          `json:"grid_col_span"`
	GridRowSpan int          `json:"grid_row_span"`
	GridOrder   int          `json:"grid_order"`
	Data        interface{}  `json:"data"`
}

// ScreenData is what a kiosk polls every RefreshInterval seconds
type ScreenData struct {
	Widgets          []WidgetData `json:"widgets"`
	RefreshInterval  int          `json:"refresh_interval"`
	Layout           Layout       `json:"layout"`
	ViewMode         ViewMode     `json:"view_mode"`
	FeaturedWidgetID *string      `json:"featured_widget_id"`
}

// WidgetTypeInfo describes one palette entry for the admin UI
type WidgetTypeInfo struct {
	Type            WidgetType      `json:"type"`
	Label           string          `json:"label"`
	WidthConstraint WidthConstraint `json:"width_constraint"`
	ConfigScope     ConfigScope     `json:"config_scope"`
}

// Palette returns the description of every widget type
func Palette() []WidgetTypeInfo {
	out := make([]WidgetTypeInfo, 0, len(WidgetTypes))
	for _, t := range WidgetTypes {
		out = append(out, WidgetTypeInfo{
			Type:            t,
			Label:           t.Label(),
			WidthConstraint: t.WidthConstraint(),
			ConfigScope:     t.ConfigScope(),
		})
	}
	return out
}
