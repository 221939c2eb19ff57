package domain

import (
	"strings"
	"unicode"
)

// RawCandidate 是 tenant 存储中原样取出的一行，键为该 tenant 的列名。
// 值可能是 string、json.Number、bool、[]any 或 nil。
type RawCandidate map[string]any

// NormalizePostcode 去掉所有空白并转为大写，作为地理编码和缓存的键
func NormalizePostcode(postcode string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, postcode)
}

type GeoResult struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	DistrictCode string  `json:"districtCode"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// UnifiedCandidate 是对外返回的统一结构。完整邮编不属于这个结构，
// 只暴露 district 和坐标。
type UnifiedCandidate struct {
	ID                string       `json:"id"`
	CandidateID       string       `json:"candidateId"`
	Role              string       `json:"role"`
	Location          string       `json:"location"`
	PostcodeDistrict  *string      `json:"postcodeDistrict"`
	Coordinates       *Coordinates `json:"coordinates"`
	YearsExperience   string       `json:"yearsExperience"`
	Availability      string       `json:"availability"`
	Sector            string       `json:"sector"`
	WorkType          string       `json:"workType"`
	Materials         []string     `json:"materials"`
	Techniques        []string     `json:"techniques"`
	Products          []string     `json:"products"`
	Machines          []string     `json:"machines"`
	MachineExperience string       `json:"machineExperience"`
	DesiredSalary     string       `json:"desiredSalary"`
	TravelDistance    string       `json:"travelDistance"`
	TenantType        TenantID     `json:"tenantType"`
}

// WithGeo 返回附加了地理信息的副本，geo 为 nil 时清空地理字段
func (c UnifiedCandidate) WithGeo(geo *GeoResult) UnifiedCandidate {
	if geo == nil {
		c.Coordinates = nil
		c.PostcodeDistrict = nil
		return c
	}
	district := geo.DistrictCode
	c.PostcodeDistrict = &district
	c.Coordinates = &Coordinates{Latitude: geo.Latitude, Longitude: geo.Longitude}
	return c
}
