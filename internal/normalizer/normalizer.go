package normalizer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/stitchhire/candidate-directory/backend/internal/domain"
)

// Normalize 把某个 tenant 的原始记录映射为统一结构。
// 原始记录中的邮编等未映射字段不会出现在结果中。
func Normalize(tenant domain.TenantID, raw domain.RawCandidate) (domain.UnifiedCandidate, error) {
	m, ok := MappingFor(tenant)
	if !ok {
		return domain.UnifiedCandidate{}, fmt.Errorf("no mapping for tenant %q", tenant)
	}

	return domain.UnifiedCandidate{
		ID:                scalar(raw, m.ID, ""),
		CandidateID:       scalar(raw, m.CandidateID, ""),
		Role:              scalar(raw, m.Role, DefaultText),
		Location:          scalar(raw, m.Location, DefaultText),
		YearsExperience:   scalar(raw, m.YearsExperience, DefaultText),
		Availability:      scalar(raw, m.Availability, DefaultAvailability),
		Sector:            scalar(raw, m.Sector, DefaultText),
		WorkType:          scalar(raw, m.WorkType, DefaultText),
		Materials:         list(raw, m.Materials),
		Techniques:        list(raw, m.Techniques),
		Products:          list(raw, m.Products),
		Machines:          list(raw, m.Machines),
		MachineExperience: scalar(raw, m.MachineExperience, DefaultMachineExperience),
		DesiredSalary:     scalar(raw, m.DesiredSalary, DefaultDesiredSalary),
		TravelDistance:    scalar(raw, m.TravelDistance, DefaultText),
		TenantType:        tenant,
	}, nil
}

func NormalizeAll(tenant domain.TenantID, raws []domain.RawCandidate) ([]domain.UnifiedCandidate, error) {
	out := make([]domain.UnifiedCandidate, 0, len(raws))
	for _, raw := range raws {
		c, err := Normalize(tenant, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func scalar(raw domain.RawCandidate, column, fallback string) string {
	if column == "" {
		return fallback
	}

	var s string
	switch v := raw[column].(type) {
	case nil:
		return fallback
	case string:
		s = strings.TrimSpace(v)
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case []any, []string:
		s = strings.Join(list(raw, column), ", ")
	default:
		s = fmt.Sprint(v)
	}

	if s == "" {
		return fallback
	}
	return s
}

// list 接受逗号分隔的字符串或原生数组两种编码。
// 字符串会被拆分、去除首尾空白，并丢弃空项和 NoneSelected；数组原样保留。
// 两种情况都不去重。
func list(raw domain.RawCandidate, column string) []string {
	if column == "" {
		return []string{}
	}

	switch v := raw[column].(type) {
	case string:
		return SplitDelimited(v)
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			if s, ok := item.(string); ok {
				out = append(out, s)
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return []string{}
	}
}

func SplitDelimited(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == NoneSelected {
			continue
		}
		out = append(out, part)
	}
	return out
}
