package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/vibropile/internal/dynamo"
)

type Document struct {
	ID      string             `json:"id"`
	Label   string             `json:"label,omitempty"`
	Created time.Time          `json:"created"`
	State   dynamo.RunState    `json:"state"`
	Partial bool               `json:"partial"`
	Tracks  dynamo.TrackMode   `json:"tracks"`
	Drive   dynamo.Track       `json:"drive"`
	Seed    int64              `json:"seed"`
	Draws   uint64             `json:"draws"`
	Dt      float64            `json:"dt"`
	Steps   int                `json:"steps"`
	Metrics map[string]float64 `json:"metrics"`
	Series  Series             `json:"series"`
}

type Series struct {
	Time         []float64 `json:"time"`
	Depth        []float64 `json:"depth"`
	Speed        []float64 `json:"speed"`
	Impulse      []float64 `json:"impulse"`
	ImpulseNoisy []float64 `json:"impulse_noisy,omitempty"`
}

// NewDocument describes tr. A trace without an ID gets a fresh one.
func NewDocument(tr *dynamo.Trace, opts Options) Document {
	id := tr.ID
	if id == "" {
		id = uuid.NewString()
	}
	return Document{
		ID:      id,
		Label:   opts.Label,
		Created: time.Now().UTC(),
		State:   tr.State,
		Partial: tr.Partial,
		Tracks:  tr.Tracks,
		Drive:   tr.Drive,
		Seed:    tr.Seed,
		Draws:   tr.Draws,
		Dt:      timeStep(tr),
		Steps:   tr.Len(),
		Metrics: tr.Metrics,
		Series: Series{
			Time:         tr.Time,
			Depth:        tr.Depth,
			Speed:        tr.Speed,
			Impulse:      tr.Impulse,
			ImpulseNoisy: tr.ImpulseNoisy,
		},
	}
}

func WriteJSON(w io.Writer, tr *dynamo.Trace, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(tr, opts))
}

// ReadJSON restores a trace written by WriteJSON.
func ReadJSON(r io.Reader) (*dynamo.Trace, Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, Document{}, err
	}

	s := doc.Series
	n := len(s.Time)
	if len(s.Depth) != n || len(s.Speed) != n || len(s.Impulse) != n {
		return nil, doc, fmt.Errorf("%w: series lengths differ (time=%d depth=%d speed=%d impulse=%d)",
			dynamo.ErrConfig, n, len(s.Depth), len(s.Speed), len(s.Impulse))
	}
	if s.ImpulseNoisy != nil && len(s.ImpulseNoisy) != n {
		return nil, doc, fmt.Errorf("%w: impulse_noisy has %d samples, want %d", dynamo.ErrConfig, len(s.ImpulseNoisy), n)
	}

	tr := &dynamo.Trace{
		Time:         s.Time,
		Depth:        s.Depth,
		Speed:        s.Speed,
		Impulse:      s.Impulse,
		ImpulseNoisy: s.ImpulseNoisy,
		ID:           doc.ID,
		State:        doc.State,
		Partial:      doc.Partial,
		Tracks:       doc.Tracks,
		Drive:        doc.Drive,
		Seed:         doc.Seed,
		Draws:        doc.Draws,
		Metrics:      doc.Metrics,
	}
	if tr.Metrics == nil {
		tr.Metrics = make(map[string]float64)
	}
	return tr, doc, nil
}
