package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// ModelID identifies a vehicle model. The inventory service sends either a
// JSON number or a JSON string. Strings are kept as sent; numbers are
// reduced to a canonical text so 1, 1.0 and 1e0 share one key.
type ModelID string

// UnmarshalJSON accepts string and number forms.
func (id *ModelID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*id = ""
		return nil
	}

	var str string
	if err := sonic.Unmarshal(data, &str); err == nil {
		*id = ModelID(str)
		return nil
	}

	if canonical, ok := canonicalNumber(raw); ok {
		*id = ModelID(canonical)
		return nil
	}

	return fmt.Errorf("invalid model id %s", raw)
}

// canonicalNumber formats a JSON number without trailing zeros or exponent
// when it holds an integer. Integers beyond float precision stay exact.
func canonicalNumber(raw string) (string, bool) {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return strconv.FormatInt(n, 10), true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return "", false
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
		return strconv.FormatInt(int64(f), 10), true
	}
	return strconv.FormatFloat(f, 'g', -1, 64), true
}

// String returns the canonical text form of the id.
func (id ModelID) String() string {
	return string(id)
}

// Manufacturer is the organization producing a vehicle model. Only the name
// is consumed; other fields sent by the inventory service are ignored.
type Manufacturer struct {
	Name string `json:"name"`
}

// VehicleModel is a single catalog entry.
type VehicleModel struct {
	ID           ModelID      `json:"id"`
	Name         string       `json:"name"`
	PictureURL   string       `json:"picture_url"`
	Manufacturer Manufacturer `json:"manufacturer"`
}

// ModelsResponse is the body of GET /api/models. Models is a pointer so an
// absent or null field can be told apart from an empty list.
type ModelsResponse struct {
	Models *[]VehicleModel `json:"models"`
}

// CloneModels returns a copy of the slice; nil stays nil.
func CloneModels(models []VehicleModel) []VehicleModel {
	if models == nil {
		return nil
	}
	out := make([]VehicleModel, len(models))
	copy(out, models)
	return out
}
