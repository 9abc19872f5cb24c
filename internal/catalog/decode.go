package catalog

import (
	"bytes"
	"fmt"

	"vehiclemodels/internal/core"

	"github.com/bytedance/sonic"
)

// DecodeModelsResponse parses a GET /api/models body and returns the models
// in the order the service sent them. The body must be a JSON object with a
// non-null "models" array.
func DecodeModelsResponse(body []byte) ([]core.VehicleModel, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: body is not a JSON object", core.ErrMalformedResponse)
	}

	var resp core.ModelsResponse
	if err := sonic.Unmarshal(trimmed, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedResponse, err)
	}
	if resp.Models == nil {
		return nil, core.ErrMissingModels
	}

	models := *resp.Models
	if models == nil {
		models = []core.VehicleModel{}
	}
	return models, nil
}
