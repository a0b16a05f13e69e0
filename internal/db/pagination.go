package db

import (
	"encoding/base64"
	"encoding/json"
)

type stakePagination struct {
	AssetID string `json:"asset_id"`
}

// encodePaginationToken builds the opaque token pointing right after assetID
func encodePaginationToken(assetID string) (string, error) {
	bytes, err := json.Marshal(stakePagination{AssetID: assetID})
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

func decodePaginationToken(token string) (string, error) {
	bytes, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", &InvalidPaginationTokenError{
			Message: "Invalid pagination token",
		}
	}

	var p stakePagination
	if err := json.Unmarshal(bytes, &p); err != nil || p.AssetID == "" {
		return "", &InvalidPaginationTokenError{
			Message: "Invalid pagination token",
		}
	}
	return p.AssetID, nil
}
