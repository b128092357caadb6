package domain

import (
	"fmt"
	"math/rand"
	"strconv"

	"go.uber.org/zap"

	"simdial/internal/action"
	"simdial/internal/database"
)

// Domain is the runtime assembly of a Spec: prefixed slots with their template
// pools attached, and a freshly generated database whose user and system
// tables are aligned by row index.
type Domain struct {
	Name        string
	Greet       string
	UserSlots   []*Slot
	SystemSlots []*Slot // index 0 is always #default
	DB          *database.DB
	Spec        *Spec
}

// New builds a Domain from a validated spec. The database columns get uniform
// Dirichlet priors; #default's vocabulary is the stringified row index.
func New(spec *Spec, rng *rand.Rand, logger *zap.Logger) (*Domain, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	d := &Domain{Name: spec.Name, Greet: spec.Greet, Spec: spec}
	for _, s := range spec.UserSlots {
		d.UserSlots = append(d.UserSlots, newSlot(s.Name, s.Description, s.Vocabulary))
	}

	uidVocab := make([]string, spec.DBSize)
	for i := range uidVocab {
		uidVocab[i] = strconv.Itoa(i)
	}
	d.SystemSlots = append(d.SystemSlots, newSlot(action.DefaultSlot[1:], "", uidVocab))
	for _, s := range spec.SystemSlots {
		d.SystemSlots = append(d.SystemSlots, newSlot(s.Name, s.Description, s.Vocabulary))
	}

	for key, bundle := range spec.NLG {
		name := "#" + key
		slot := d.GetUserSlot(name)
		if slot == nil {
			slot = d.GetSystemSlot(name)
		}
		if slot == nil {
			return nil, fmt.Errorf("domain %s: cannot align nlg bundle %s with any slot", spec.Name, name)
		}
		slot.Informs = append(slot.Informs, bundle.Inform...)
		slot.Requests = append(slot.Requests, bundle.Request...)
		slot.YNQuestions = bundle.YNQuestion
	}

	// Uniform priors. #default is the key column and carries no prior.
	usrPriors := make([][]float64, len(d.UserSlots))
	for i, s := range d.UserSlots {
		usrPriors[i] = ones(s.Dim)
	}
	sysPriors := make([][]float64, 0, len(d.SystemSlots)-1)
	for _, s := range d.SystemSlots[1:] {
		sysPriors = append(sysPriors, ones(s.Dim))
	}
	d.DB = database.New(rng, usrPriors, sysPriors, spec.DBSize)

	logger.Debug("domain assembled",
		zap.String("domain", d.Name),
		zap.Int("usr_slots", len(d.UserSlots)),
		zap.Int("sys_slots", len(d.SystemSlots)),
		zap.Int("db_rows", d.DB.NumRows()),
		zap.Int("db_unique_rows", d.DB.NumUniqueRows()))
	return d, nil
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

// GetUserSlot returns the user slot with the given prefixed name, or nil.
func (d *Domain) GetUserSlot(name string) *Slot {
	for _, s := range d.UserSlots {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// GetUserSlotIndex returns the slot and its column index, or (nil, -1).
func (d *Domain) GetUserSlotIndex(name string) (*Slot, int) {
	for i, s := range d.UserSlots {
		if s.Name == name {
			return s, i
		}
	}
	return nil, -1
}

// GetSystemSlot returns the system slot with the given prefixed name, or nil.
func (d *Domain) GetSystemSlot(name string) *Slot {
	for _, s := range d.SystemSlots {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// GetSystemSlotIndex returns the slot and its column index in the system
// table (where #default occupies column 0), or (nil, -1).
func (d *Domain) GetSystemSlotIndex(name string) (*Slot, int) {
	for i, s := range d.SystemSlots {
		if s.Name == name {
			return s, i
		}
	}
	return nil, -1
}

// IsUserSlot reports whether the prefixed name refers to a user slot.
func (d *Domain) IsUserSlot(name string) bool {
	return d.GetUserSlot(name) != nil
}
