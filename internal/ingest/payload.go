package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/listenupapp/exhibit-server/internal/domain"
)

// MaxBatchItems bounds the items accepted in one payload.
const MaxBatchItems = 1000

// Payload is a batch of repository items, optionally naming its exhibit.
type Payload struct {
	Exhibit string            `json:"exhibit,omitempty"`
	Items   []*domain.RawItem `json:"items" validate:"required,min=1,max=1000"`
}

// DecodePayload reads a payload in any of the accepted shapes:
//
//	{"exhibit": "...", "items": [ {...}, ... ]}
//	[ {...}, ... ]
//	{...}                      a single item
func DecodePayload(r io.Reader) (*Payload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty payload")
	}

	if data[0] == '[' {
		var items []*domain.RawItem
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decode item list: %w", err)
		}
		return &Payload{Items: items}, nil
	}

	var probe struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	if probe.Items != nil {
		var p Payload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode batch: %w", err)
		}
		return &p, nil
	}

	var item domain.RawItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return &Payload{Items: []*domain.RawItem{&item}}, nil
}
