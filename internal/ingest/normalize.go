package ingest

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lox/tideline/internal/models"
)

// FormatError reports a payload that does not match the expected schema.
// Index is the record position, or -1 for the envelope.
type FormatError struct {
	Kind  models.DatasetKind
	Index int
	Field string
	Err   error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("%s payload: ", e.Kind)
	if e.Index >= 0 {
		msg += fmt.Sprintf("record %d: ", e.Index)
	}
	if e.Field != "" {
		msg += fmt.Sprintf("field %q: ", e.Field)
	}
	if e.Err != nil {
		return msg + e.Err.Error()
	}
	return msg + "missing"
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

type sgValue struct {
	SG *float64 `json:"sg"`
}

type weatherPayload struct {
	Hours *[]weatherHour `json:"hours"`
}

type weatherHour struct {
	Time       *string  `json:"time"`
	WaveHeight *sgValue `json:"waveHeight"`
}

type tidesPayload struct {
	Data *[]tideRecord `json:"data"`
}

type tideRecord struct {
	Time   *string  `json:"time"`
	Type   *string  `json:"type"`
	Height *float64 `json:"height"`
}

type astronomyPayload struct {
	Data *[]astronomyRecord `json:"data"`
}

type astronomyRecord struct {
	Time             *string  `json:"time"`
	Sunrise          *string  `json:"sunrise"`
	Sunset           *string  `json:"sunset"`
	Moonrise         *string  `json:"moonrise"`
	Moonset          *string  `json:"moonset"`
	AstronomicalDawn *string  `json:"astronomicalDawn"`
	AstronomicalDusk *string  `json:"astronomicalDusk"`
	NauticalDawn     *string  `json:"nauticalDawn"`
	NauticalDusk     *string  `json:"nauticalDusk"`
	CivilDawn        *string  `json:"civilDawn"`
	CivilDusk        *string  `json:"civilDusk"`
	MoonFraction     *float64 `json:"moonFraction"`
	MoonPhase        *struct {
		Current *moonMarker `json:"current"`
		Closest *moonMarker `json:"closest"`
	} `json:"moonPhase"`
}

type moonMarker struct {
	Text  string   `json:"text"`
	Time  *string  `json:"time"`
	Value *float64 `json:"value"`
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// requiredTime parses a mandatory timestamp field.
func requiredTime(kind models.DatasetKind, i int, field string, s *string) (time.Time, error) {
	if s == nil {
		return time.Time{}, &FormatError{Kind: kind, Index: i, Field: field}
	}
	t, err := parseTime(*s)
	if err != nil {
		return time.Time{}, &FormatError{Kind: kind, Index: i, Field: field, Err: err}
	}
	return t, nil
}

// optionalTime parses an optional timestamp; unparseable values are an error,
// absent ones are not.
func optionalTime(kind models.DatasetKind, i int, field string, s *string) (sql.NullTime, error) {
	if s == nil {
		return sql.NullTime{}, nil
	}
	t, err := parseTime(*s)
	if err != nil {
		return sql.NullTime{}, &FormatError{Kind: kind, Index: i, Field: field, Err: err}
	}
	return sql.NullTime{Time: t, Valid: true}, nil
}

// DecodeWeather turns a weather/point payload into hourly samples.
func DecodeWeather(body []byte) ([]models.WeatherSample, error) {
	var p weatherPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, &FormatError{Kind: models.KindWeather, Index: -1, Err: err}
	}
	if p.Hours == nil {
		return nil, &FormatError{Kind: models.KindWeather, Index: -1, Field: "hours"}
	}

	samples := make([]models.WeatherSample, 0, len(*p.Hours))
	for i, h := range *p.Hours {
		t, err := requiredTime(models.KindWeather, i, "time", h.Time)
		if err != nil {
			return nil, err
		}
		s := models.WeatherSample{Time: t}
		if h.WaveHeight != nil && h.WaveHeight.SG != nil {
			s.WaveHeight = sql.NullFloat64{Float64: *h.WaveHeight.SG, Valid: true}
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// DecodeTides turns a tide/extremes/point payload into tide extremes.
func DecodeTides(body []byte) ([]models.TideExtreme, error) {
	var p tidesPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, &FormatError{Kind: models.KindTides, Index: -1, Err: err}
	}
	if p.Data == nil {
		return nil, &FormatError{Kind: models.KindTides, Index: -1, Field: "data"}
	}

	tides := make([]models.TideExtreme, 0, len(*p.Data))
	for i, d := range *p.Data {
		t, err := requiredTime(models.KindTides, i, "time", d.Time)
		if err != nil {
			return nil, err
		}
		if d.Type == nil {
			return nil, &FormatError{Kind: models.KindTides, Index: i, Field: "type"}
		}
		kind := models.TideKind(*d.Type)
		if kind != models.TideHigh && kind != models.TideLow {
			return nil, &FormatError{Kind: models.KindTides, Index: i, Field: "type",
				Err: fmt.Errorf("unknown tide type %q", *d.Type)}
		}
		if d.Height == nil {
			return nil, &FormatError{Kind: models.KindTides, Index: i, Field: "height"}
		}
		tides = append(tides, models.TideExtreme{Time: t, Kind: kind, Height: *d.Height})
	}
	return tides, nil
}

// DecodeAstronomy turns an astronomy/point payload into one record per day.
func DecodeAstronomy(body []byte) ([]models.AstronomyRecord, error) {
	const kind = models.KindAstronomy
	var p astronomyPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, &FormatError{Kind: kind, Index: -1, Err: err}
	}
	if p.Data == nil {
		return nil, &FormatError{Kind: kind, Index: -1, Field: "data"}
	}

	records := make([]models.AstronomyRecord, 0, len(*p.Data))
	for i, d := range *p.Data {
		date, err := requiredTime(kind, i, "time", d.Time)
		if err != nil {
			return nil, err
		}
		rec := models.AstronomyRecord{Date: date}

		optional := []struct {
			field string
			src   *string
			dst   *sql.NullTime
		}{
			{"sunrise", d.Sunrise, &rec.Sunrise},
			{"sunset", d.Sunset, &rec.Sunset},
			{"moonrise", d.Moonrise, &rec.Moonrise},
			{"moonset", d.Moonset, &rec.Moonset},
			{"astronomicalDawn", d.AstronomicalDawn, &rec.AstronomicalDawn},
			{"astronomicalDusk", d.AstronomicalDusk, &rec.AstronomicalDusk},
			{"nauticalDawn", d.NauticalDawn, &rec.NauticalDawn},
			{"nauticalDusk", d.NauticalDusk, &rec.NauticalDusk},
			{"civilDawn", d.CivilDawn, &rec.CivilDawn},
			{"civilDusk", d.CivilDusk, &rec.CivilDusk},
		}
		for _, o := range optional {
			if *o.dst, err = optionalTime(kind, i, o.field, o.src); err != nil {
				return nil, err
			}
		}

		if d.MoonFraction != nil {
			rec.MoonFraction = sql.NullFloat64{Float64: *d.MoonFraction, Valid: true}
		}
		if d.MoonPhase != nil && d.MoonPhase.Current != nil && d.MoonPhase.Current.Value != nil {
			info := &models.MoonPhaseInfo{}
			if info.Current, err = decodeMarker(i, "moonPhase.current", d.MoonPhase.Current); err != nil {
				return nil, err
			}
			if d.MoonPhase.Closest != nil && d.MoonPhase.Closest.Value != nil {
				if info.Closest, err = decodeMarker(i, "moonPhase.closest", d.MoonPhase.Closest); err != nil {
					return nil, err
				}
			}
			rec.MoonPhase = info
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeMarker(i int, field string, m *moonMarker) (models.MoonPhaseMarker, error) {
	out := models.MoonPhaseMarker{Text: m.Text, Value: *m.Value}
	t, err := optionalTime(models.KindAstronomy, i, field+".time", m.Time)
	if err != nil {
		return out, err
	}
	out.Time = t.Time
	return out, nil
}
