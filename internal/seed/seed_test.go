package seed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stitchhire/candidate-directory/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	candidates []domain.RawCandidate
	postcodes  map[string]string
	failOn     string
}

func (w *recordingWriter) InsertCandidate(_ context.Context, raw domain.RawCandidate) error {
	for _, v := range raw {
		if v == w.failOn {
			return errors.New("insert failed")
		}
	}
	w.candidates = append(w.candidates, raw)
	return nil
}

func (w *recordingWriter) SetPostcode(_ context.Context, candidateID string, postcode string) error {
	if w.postcodes == nil {
		w.postcodes = make(map[string]string)
	}
	w.postcodes[candidateID] = postcode
	return nil
}

func TestImportSewingCSVKeepsDelimitedStrings(t *testing.T) {
	csv := "candidate_id,job_title,fabrics,postcode\n" +
		"SEW-1,Machinist,\"Denim, Silk\",LE1 5WW\n" +
		"SEW-2,Cutter,,\n"

	w := &recordingWriter{}
	n, err := ImportCandidatesCSV(context.Background(), strings.NewReader(csv), domain.TenantSewing, w)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, w.candidates, 2)
	assert.Equal(t, "Denim, Silk", w.candidates[0]["fabrics"])
	assert.NotContains(t, w.candidates[0], PostcodeColumn)
	assert.NotContains(t, w.candidates[1], "fabrics")
	assert.Equal(t, map[string]string{"SEW-1": "LE1 5WW"}, w.postcodes)
}

func TestImportUpholsteryCSVSplitsArrayColumns(t *testing.T) {
	csv := "candidate_ref,role,materials\n" +
		"UPH-1,Upholsterer,Leather | Velvet||\n"

	w := &recordingWriter{}
	n, err := ImportCandidatesCSV(context.Background(), strings.NewReader(csv), domain.TenantUpholstery, w)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"Leather", "Velvet"}, w.candidates[0]["materials"])
	assert.Equal(t, true, w.candidates[0]["is_active"])
}

func TestImportRequiresCandidateIDColumn(t *testing.T) {
	_, err := ImportCandidatesCSV(context.Background(), strings.NewReader("job_title\nMachinist\n"), domain.TenantSewing, &recordingWriter{})
	assert.Error(t, err)
}

func TestImportSkipsFailedRows(t *testing.T) {
	csv := "candidate_id,job_title\n" +
		"SEW-1,Machinist\n" +
		"SEW-2,Broken\n" +
		",Nobody\n"

	w := &recordingWriter{failOn: "Broken"}
	n, err := ImportCandidatesCSV(context.Background(), strings.NewReader(csv), domain.TenantSewing, w)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
