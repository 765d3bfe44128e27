package trace

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// Capture is a recorded session written to disk.
type Capture struct {
	Session uuid.UUID `cbor:"1,keyasint"`
	Chip    string    `cbor:"2,keyasint"`
	Taken   time.Time `cbor:"3,keyasint"`
	Events  []Event   `cbor:"4,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("trace: cbor encoder mode: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("trace: cbor decoder mode: %v", err))
	}
}

// Snapshot packages the recorder's events under a fresh session id.
func (r *Recorder) Snapshot(chip string) Capture {
	return Capture{
		Session: uuid.New(),
		Chip:    chip,
		Taken:   time.Now().UTC(),
		Events:  r.Events(),
	}
}

// Encode writes c as a single CBOR item.
func (c Capture) Encode(w io.Writer) error {
	return encMode.NewEncoder(w).Encode(c)
}

// Decode reads one capture.
func Decode(rd io.Reader) (Capture, error) {
	var c Capture
	if err := decMode.NewDecoder(rd).Decode(&c); err != nil {
		return Capture{}, err
	}
	return c, nil
}
