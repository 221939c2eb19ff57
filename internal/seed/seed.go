package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/stitchhire/candidate-directory/backend/internal/domain"
	"github.com/stitchhire/candidate-directory/backend/internal/repository"
)

// PostcodeColumn 不会写入候选人表，而是写入受限的邮编表
const PostcodeColumn = "postcode"

// ListSeparator 用于在 CSV 单元格中表示 upholstery 的数组列
const ListSeparator = "|"

// arrayColumns 是各 tenant 中以数组形式存储的列
var arrayColumns = map[domain.TenantID][]string{
	domain.TenantUpholstery: {"materials", "techniques", "furniture_types", "machines"},
}

type CandidateWriter interface {
	InsertCandidate(ctx context.Context, raw domain.RawCandidate) error
	SetPostcode(ctx context.Context, candidateID string, postcode string) error
}

// ImportCandidatesCSV 读取表头为 tenant 原始列名的 CSV 并逐行写入，
// 返回成功写入的行数。单行失败只记录日志。
func ImportCandidatesCSV(ctx context.Context, r io.Reader, tenant domain.TenantID, w CandidateWriter) (int, error) {
	schema := repository.SchemaFor(tenant)
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("读取表头失败: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	if !slices.Contains(headers, schema.CandidateIDColumn) {
		return 0, fmt.Errorf("缺少候选人编号列 %q", schema.CandidateIDColumn)
	}

	cnt := 0
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return cnt, fmt.Errorf("第 %d 行读取失败: %w", line, err)
		}

		raw, postcode := buildRecord(tenant, headers, row)
		candidateID, _ := raw[schema.CandidateIDColumn].(string)
		if candidateID == "" {
			slog.Warn("候选人编号为空，跳过", "line", line)
			continue
		}

		if err := w.InsertCandidate(ctx, raw); err != nil {
			slog.Error("无法插入候选人", "line", line, "candidate_id", candidateID, "error", err)
			continue
		}
		if postcode != "" {
			if err := w.SetPostcode(ctx, candidateID, postcode); err != nil {
				slog.Error("无法写入邮编", "line", line, "candidate_id", candidateID, "error", err)
			}
		}

		cnt++
	}

	return cnt, nil
}

func buildRecord(tenant domain.TenantID, headers, row []string) (domain.RawCandidate, string) {
	raw := domain.RawCandidate{"is_active": true}
	postcode := ""

	for i, value := range row {
		if i >= len(headers) {
			break
		}
		header := headers[i]
		value = strings.TrimSpace(value)

		switch {
		case header == PostcodeColumn:
			postcode = value
		case value == "":
			// 空单元格保持为 NULL
		case slices.Contains(arrayColumns[tenant], header):
			items := make([]string, 0)
			for _, item := range strings.Split(value, ListSeparator) {
				if item = strings.TrimSpace(item); item != "" {
					items = append(items, item)
				}
			}
			raw[header] = items
		default:
			raw[header] = value
		}
	}

	return raw, postcode
}
