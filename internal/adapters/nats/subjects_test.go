package natsadapter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	natsadapter "github.com/samirrijal/lgatracker/internal/adapters/nats"
)

func TestVisitSubject(t *testing.T) {
	assert.Equal(t, "lga.visits.3390871", natsadapter.VisitSubject(3390871))
	assert.Equal(t, "lga.visits.>", natsadapter.SubjectVisits)
}
