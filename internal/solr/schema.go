package solr

// Schema names the collection fields the gateway builds queries against.
type Schema struct {
	ID         string `yaml:"id"`
	Text       string `yaml:"text"`
	User       string `yaml:"user"`
	Time       string `yaml:"time"`
	Geo        string `yaml:"geo"`
	GeoRPT     string `yaml:"geo_rpt"`
	PosSentRPT string `yaml:"pos_sent_rpt"`
}

// DefaultSchema matches the collection as provisioned by the ingest side.
func DefaultSchema() Schema {
	return Schema{
		ID:         "id",
		Text:       "text",
		User:       "user_name",
		Time:       "created_at",
		Geo:        "coord",
		GeoRPT:     "coord_rpt",
		PosSentRPT: "coord_sentiment_pos_rpt",
	}
}

// ApplyDefaults fills empty field names from DefaultSchema.
func (s *Schema) ApplyDefaults() {
	def := DefaultSchema()
	if s.ID == "" {
		s.ID = def.ID
	}
	if s.Text == "" {
		s.Text = def.Text
	}
	if s.User == "" {
		s.User = def.User
	}
	if s.Time == "" {
		s.Time = def.Time
	}
	if s.Geo == "" {
		s.Geo = def.Geo
	}
	if s.GeoRPT == "" {
		s.GeoRPT = def.GeoRPT
	}
	if s.PosSentRPT == "" {
		s.PosSentRPT = def.PosSentRPT
	}
}
