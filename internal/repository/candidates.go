package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/stitchhire/candidate-directory/backend/internal/domain"
)

// 候选人表的列在两个 tenant 之间并不一致，这里以 jsonb 整行取出，交给 normalizer 处理
func decodeRawCandidate(data []byte) (domain.RawCandidate, error) {
	raw := domain.RawCandidate{}
	dec := json.NewDecoder(bytes.NewReader(data))
	// bigint 主键超过 2^53 时 float64 会丢失精度
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode candidate row: %w", err)
	}
	return raw, nil
}

func (r *Repository) ListActiveCandidates(ctx context.Context) ([]domain.RawCandidate, error) {
	query := fmt.Sprintf(`SELECT to_jsonb(c) FROM %s c WHERE c.is_active = true ORDER BY c.id`, r.schema.CandidatesTable)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, r.translateError(err, "candidates")
	}
	defer rows.Close()

	candidates := make([]domain.RawCandidate, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, r.translateError(err, "candidates")
		}
		raw, err := decodeRawCandidate(data)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, raw)
	}

	if err := rows.Err(); err != nil {
		return nil, r.translateError(err, "candidates")
	}

	return candidates, nil
}

func (r *Repository) FindCandidate(ctx context.Context, candidateID string) (domain.RawCandidate, error) {
	query := fmt.Sprintf(`SELECT to_jsonb(c) FROM %s c WHERE c.%s = $1 AND c.is_active = true`,
		r.schema.CandidatesTable, pgx.Identifier{r.schema.CandidateIDColumn}.Sanitize())

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	var data []byte
	if err := r.dbpool.QueryRowContext(ctx, query, candidateID).Scan(&data); err != nil {
		return nil, r.translateError(err, "candidate")
	}

	return decodeRawCandidate(data)
}

func (r *Repository) PostcodesByCandidateID(ctx context.Context, candidateIDs []string) (map[string]string, error) {
	postcodes := make(map[string]string, len(candidateIDs))
	if len(candidateIDs) == 0 {
		return postcodes, nil
	}

	query := fmt.Sprintf(`SELECT candidate_id, postcode FROM %s WHERE candidate_id = ANY($1)`, r.schema.PostcodesTable)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, candidateIDs)
	if err != nil {
		return nil, r.translateError(err, "postcodes")
	}
	defer rows.Close()

	for rows.Next() {
		var candidateID, postcode string
		if err := rows.Scan(&candidateID, &postcode); err != nil {
			return nil, r.translateError(err, "postcodes")
		}
		postcodes[candidateID] = postcode
	}

	if err := rows.Err(); err != nil {
		return nil, r.translateError(err, "postcodes")
	}

	return postcodes, nil
}

// InsertCandidate 按 raw 中出现的列插入一行，列名来自 seed 生成器
func (r *Repository) InsertCandidate(ctx context.Context, raw domain.RawCandidate) error {
	columns := make([]string, 0, len(raw))
	for column := range raw {
		columns = append(columns, column)
	}
	slices.Sort(columns)

	quoted := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = pgx.Identifier{column}.Sanitize()
	}
	columnList := strings.Join(quoted, ", ")

	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s)
		SELECT %[2]s FROM jsonb_populate_record(NULL::%[1]s, $1::jsonb)
	`, r.schema.CandidatesTable, columnList)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	_, err = r.dbpool.ExecContext(ctx, query, string(data))
	return err
}

func (r *Repository) SetPostcode(ctx context.Context, candidateID string, postcode string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (candidate_id, postcode) VALUES ($1, $2)
		ON CONFLICT (candidate_id) DO UPDATE SET postcode = EXCLUDED.postcode
	`, r.schema.PostcodesTable)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, candidateID, postcode)
	return err
}
