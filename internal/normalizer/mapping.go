package normalizer

import "github.com/stitchhire/candidate-directory/backend/internal/domain"

const (
	DefaultText              = "Not specified"
	DefaultAvailability      = "Unknown"
	DefaultDesiredSalary     = "Competitive"
	DefaultMachineExperience = "None"

	// NoneSelected 是表单里"未选择"的占位值，按原样区分大小写
	NoneSelected = "None selected"
)

// Mapping 记录统一字段对应的 tenant 列名，空字符串表示该 tenant 没有这一列
type Mapping struct {
	ID                string
	CandidateID       string
	Role              string
	Location          string
	YearsExperience   string
	Availability      string
	Sector            string
	WorkType          string
	Materials         string
	Techniques        string
	Products          string
	Machines          string
	MachineExperience string
	DesiredSalary     string
	TravelDistance    string
}

var mappings = map[domain.TenantID]Mapping{
	domain.TenantSewing: {
		ID:                "id",
		CandidateID:       "candidate_id",
		Role:              "job_title",
		Location:          "town",
		YearsExperience:   "years_experience",
		Availability:      "availability",
		Sector:            "sector",
		WorkType:          "work_type",
		Materials:         "fabrics",
		Techniques:        "sewing_techniques",
		Products:          "products_made",
		Machines:          "machines_used",
		MachineExperience: "machine_experience",
		DesiredSalary:     "salary_expectation",
		TravelDistance:    "travel_distance",
	},
	domain.TenantUpholstery: {
		ID:              "id",
		CandidateID:     "candidate_ref",
		Role:            "role",
		Location:        "location",
		YearsExperience: "experience_years",
		Availability:    "availability",
		Sector:          "sector",
		WorkType:        "employment_type",
		Materials:       "materials",
		Techniques:      "techniques",
		Products:        "furniture_types",
		Machines:        "machines",
		DesiredSalary:   "desired_salary",
		TravelDistance:  "max_travel",
	},
}

func MappingFor(tenant domain.TenantID) (Mapping, bool) {
	m, ok := mappings[tenant]
	return m, ok
}
