package chi

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/MasterOfNone69/hhypermap-bop/internal/domain/gap"
	"github.com/MasterOfNone69/hhypermap-bop/internal/domain/geo"
	"github.com/MasterOfNone69/hhypermap-bop/internal/domain/search/request"
	"github.com/MasterOfNone69/hhypermap-bop/internal/domain/timespan"
)

// searchParams is the bound query string of GET /search. The bounds here
// mirror the request constructor's; the validator rejects obviously bad
// input with a parameter name before any literal is parsed.
type searchParams struct {
	QText string
	QUser string
	QTime string `validate:"omitempty,timerange"`
	QGeo  string `validate:"omitempty,georange"`

	DocsLimit int    `validate:"min=0,max=100"`
	DocsSort  string `validate:"omitempty,oneof=score time distance"`

	TimeLimit  int    `validate:"min=0,max=1000"`
	TimeGap    string `validate:"omitempty,isogap"`
	TimeFilter string `validate:"omitempty,timerange"`

	HeatmapLimit     int    `validate:"min=0,max=10000"`
	HeatmapGridLevel int    `validate:"min=0,max=100"`
	HeatmapFilter    string `validate:"omitempty,georange"`
	HeatmapPosSent   bool

	TextLimit int `validate:"min=0,max=1000"`
	UserLimit int `validate:"min=0,max=1000"`
}

// exportQueryParams is the bound query string of GET /export. The limit is
// mandatory and starts at 1: an export of nothing is a request error.
type exportQueryParams struct {
	QText string
	QUser string
	QTime string `validate:"omitempty,timerange"`
	QGeo  string `validate:"omitempty,georange"`

	DocsLimit int `validate:"min=1,max=10000"`
}

// paramNames maps bound struct fields back to their public parameter
// names for error messages.
var paramNames = map[string]string{
	"QText":            "q.text",
	"QUser":            "q.user",
	"QTime":            "q.time",
	"QGeo":             "q.geo",
	"DocsLimit":        "d.docs.limit",
	"DocsSort":         "d.docs.sort",
	"TimeLimit":        "a.time.limit",
	"TimeGap":          "a.time.gap",
	"TimeFilter":       "a.time.filter",
	"HeatmapLimit":     "a.hm.limit",
	"HeatmapGridLevel": "a.hm.gridLevel",
	"HeatmapFilter":    "a.hm.filter",
	"HeatmapPosSent":   "a.hm.posSent",
	"TextLimit":        "a.text.limit",
	"UserLimit":        "a.user.limit",
}

// newValidator builds the shared validator with the range-literal checks
// registered. The patterns front the domain parsers; the parsers stay the
// authority on semantics.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	mustRegister(v, "timerange", func(fl validator.FieldLevel) bool {
		return timespan.RangePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "georange", func(fl validator.FieldLevel) bool {
		return geo.RangePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "isogap", func(fl validator.FieldLevel) bool {
		_, err := gap.ParseISO8601(fl.Field().String())
		return err == nil
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validator: %v", tag, err))
	}
}

// validationMessage renders the first violation with its public
// parameter name.
func validationMessage(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		fe := errs[0]
		name := paramNames[fe.StructField()]
		if name == "" {
			name = fe.StructField()
		}
		switch fe.Tag() {
		case "min", "max":
			return fmt.Sprintf("%s is out of range", name)
		case "oneof":
			return fmt.Sprintf("%s must be one of: %s", name, fe.Param())
		case "timerange":
			return fmt.Sprintf("%s must look like [2010-01-01 TO 2012-01-01] or use * for an open end", name)
		case "georange":
			return fmt.Sprintf("%s must look like [-90,-180 TO 90,180]", name)
		case "isogap":
			return fmt.Sprintf("%s must be a single-designator ISO-8601 duration like P1D or PT1H", name)
		default:
			return fmt.Sprintf("%s is invalid", name)
		}
	}
	return "invalid parameters"
}

func bindSearchParams(q url.Values) (searchParams, error) {
	p := searchParams{
		QText:      q.Get("q.text"),
		QUser:      q.Get("q.user"),
		QTime:      q.Get("q.time"),
		QGeo:       q.Get("q.geo"),
		DocsSort:   q.Get("d.docs.sort"),
		TimeGap:    q.Get("a.time.gap"),
		TimeFilter: q.Get("a.time.filter"),
	}

	var err error
	if p.DocsLimit, err = intParam(q, "d.docs.limit"); err != nil {
		return searchParams{}, err
	}
	if p.TimeLimit, err = intParam(q, "a.time.limit"); err != nil {
		return searchParams{}, err
	}
	if p.HeatmapLimit, err = intParam(q, "a.hm.limit"); err != nil {
		return searchParams{}, err
	}
	if p.HeatmapGridLevel, err = intParam(q, "a.hm.gridLevel"); err != nil {
		return searchParams{}, err
	}
	p.HeatmapFilter = q.Get("a.hm.filter")
	if p.HeatmapPosSent, err = boolParam(q, "a.hm.posSent"); err != nil {
		return searchParams{}, err
	}
	if p.TextLimit, err = intParam(q, "a.text.limit"); err != nil {
		return searchParams{}, err
	}
	if p.UserLimit, err = intParam(q, "a.user.limit"); err != nil {
		return searchParams{}, err
	}
	return p, nil
}

func bindExportParams(q url.Values) (exportQueryParams, error) {
	p := exportQueryParams{
		QText: q.Get("q.text"),
		QUser: q.Get("q.user"),
		QTime: q.Get("q.time"),
		QGeo:  q.Get("q.geo"),
	}
	var err error
	if p.DocsLimit, err = intParam(q, "d.docs.limit"); err != nil {
		return exportQueryParams{}, err
	}
	return p, nil
}

func (p searchParams) toInput() request.Input {
	return request.Input{
		QText:            p.QText,
		QUser:            p.QUser,
		QTime:            p.QTime,
		QGeo:             p.QGeo,
		DocsLimit:        p.DocsLimit,
		DocsSort:         request.Sort(p.DocsSort),
		TimeLimit:        p.TimeLimit,
		TimeGap:          p.TimeGap,
		TimeFilter:       p.TimeFilter,
		HeatmapLimit:     p.HeatmapLimit,
		HeatmapGridLevel: p.HeatmapGridLevel,
		HeatmapFilter:    p.HeatmapFilter,
		HeatmapPosSent:   p.HeatmapPosSent,
		TextLimit:        p.TextLimit,
		UserLimit:        p.UserLimit,
	}
}

func (p exportQueryParams) toInput() request.Input {
	return request.Input{
		QText:     p.QText,
		QUser:     p.QUser,
		QTime:     p.QTime,
		QGeo:      p.QGeo,
		DocsLimit: p.DocsLimit,
	}
}

func intParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}

func boolParam(q url.Values, name string) (bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", name, raw)
	}
	return b, nil
}
