package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand"
	"strings"

	"github.com/stitchhire/candidate-directory/backend/internal/domain"
)

var firstNames = []string{
	"Amelia", "Olivia", "Isla", "Ava", "Mia", "Grace", "Freya", "Lily",
	"Oliver", "George", "Harry", "Noah", "Jack", "Leo", "Arthur", "Oscar",
	"Priya", "Aisha", "Tomasz", "Zofia", "Mohammed", "Yusuf", "Chen", "Ana",
}

var lastNames = []string{
	"Smith", "Jones", "Taylor", "Brown", "Williams", "Wilson", "Johnson", "Davies",
	"Patel", "Khan", "Evans", "Thomas", "Roberts", "Walker", "Wright", "Nowak",
}

var postcodes = []string{
	"LE1 5WW", "LE3 0AA", "M1 1AE", "M4 5JD", "B1 1BB", "B5 4BU", "NG1 5FS",
	"LS1 4DY", "BD1 1HY", "NN1 2EW", "HP13 5HQ", "SW1A 1AA", "E1 6AN", "BS1 4DJ",
}

var (
	towns              = []string{"Leicester", "Manchester", "Birmingham", "Nottingham", "Leeds", "Bradford", "Northampton", "High Wycombe", "London", "Bristol"}
	availabilities     = []string{"Immediate", "1 week", "2 weeks", "1 month", "None selected"}
	sectors            = []string{"Fashion", "Interiors", "Automotive", "Theatre", "Bridal", "Contract furniture"}
	workTypes          = []string{"Full-time", "Part-time", "Freelance", "Contract"}
	salaries           = []string{"£22,000", "£25,000", "£28,000", "£32,000", "£14 per hour", ""}
	travelDistances    = []string{"5 miles", "10 miles", "20 miles", "30 miles", "Nationwide"}
	sewingRoles        = []string{"Sewing machinist", "Sample machinist", "Pattern cutter", "Alterations tailor", "Garment technologist"}
	upholsteryRoles    = []string{"Upholsterer", "Trainee upholsterer", "Cutter", "Frame maker", "Foam converter"}
	fabrics            = []string{"Cotton", "Silk", "Denim", "Jersey", "Wool", "Linen", "Chiffon"}
	sewingTechniques   = []string{"Overlocking", "Pattern cutting", "Hand finishing", "Pressing", "Quilting"}
	sewingProducts     = []string{"Dresses", "Shirts", "Outerwear", "Lingerie", "Curtains", "Bags"}
	sewingMachines     = []string{"Walking foot", "Overlock", "Lockstitch", "Coverstitch", "Buttonhole"}
	machineExperience  = []string{"Industrial", "Domestic", "Industrial and domestic", ""}
	upholsteryMaterial = []string{"Leather", "Velvet", "Foam", "Webbing", "Hessian", "Horsehair"}
	upholsteryTechs    = []string{"Buttoning", "Deep buttoning", "Traditional stuffing", "Pleating", "Piping"}
	furnitureTypes     = []string{"Sofas", "Chairs", "Headboards", "Ottomans", "Vehicle seating"}
	upholsteryMachines = []string{"Walking foot", "Staple gun", "Foam saw", "Button press"}
)

func pick[T any](items []T) T {
	return items[mrand.Intn(len(items))]
}

// pickSome 随机选出 1 到 max 项
func pickSome(items []string, max int) []string {
	n := mrand.Intn(max) + 1
	out := make([]string, 0, n)
	for _, i := range mrand.Perm(len(items))[:min(n, len(items))] {
		out = append(out, items[i])
	}
	return out
}

// pickDelimited 模拟表单导出的逗号分隔字段，偶尔混入 "None selected" 和多余空白
func pickDelimited(items []string, max int) string {
	picked := pickSome(items, max)
	if mrand.Intn(4) == 0 {
		picked = append(picked, "None selected")
	}
	if mrand.Intn(4) == 0 {
		picked = append(picked, " ")
	}
	return strings.Join(picked, ", ")
}

func GenerateRandomFullName() string {
	return pick(firstNames) + " " + pick(lastNames)
}

func GenerateRandomPostcode() string {
	return pick(postcodes)
}

func GenerateCandidateID(tenant domain.TenantID, n int) string {
	prefix := "SEW"
	if tenant == domain.TenantUpholstery {
		prefix = "UPH"
	}
	return fmt.Sprintf("%s-%05d", prefix, n)
}

func GenerateRandomUser(fullName, candidateID, passwordHash, emailDomain string) *domain.NewUser {
	local := strings.ToLower(strings.ReplaceAll(fullName, " ", "."))
	return &domain.NewUser{
		Email:        fmt.Sprintf("%s.%s@%s", local, strings.ToLower(candidateID), emailDomain),
		PasswordHash: passwordHash,
		CandidateID:  candidateID,
		FullName:     fullName,
		Phone:        fmt.Sprintf("07%09d", mrand.Intn(1_000_000_000)),
	}
}

// GenerateRandomCandidate 生成某个 tenant 原始格式的候选人记录：
// sewing 的多值字段是逗号分隔的字符串，upholstery 是数组
func GenerateRandomCandidate(tenant domain.TenantID, candidateID string) domain.RawCandidate {
	switch tenant {
	case domain.TenantUpholstery:
		return domain.RawCandidate{
			"candidate_ref":    candidateID,
			"role":             pick(upholsteryRoles),
			"location":         pick(towns),
			"experience_years": mrand.Intn(30),
			"availability":     pick(availabilities),
			"sector":           pick(sectors),
			"employment_type":  pick(workTypes),
			"materials":        pickSome(upholsteryMaterial, 3),
			"techniques":       pickSome(upholsteryTechs, 3),
			"furniture_types":  pickSome(furnitureTypes, 2),
			"machines":         pickSome(upholsteryMachines, 2),
			"desired_salary":   pick(salaries),
			"max_travel":       pick(travelDistances),
			"is_active":        true,
		}
	default:
		return domain.RawCandidate{
			"candidate_id":       candidateID,
			"job_title":          pick(sewingRoles),
			"town":               pick(towns),
			"years_experience":   mrand.Intn(30),
			"availability":       pick(availabilities),
			"sector":             pick(sectors),
			"work_type":          pick(workTypes),
			"fabrics":            pickDelimited(fabrics, 4),
			"sewing_techniques":  pickDelimited(sewingTechniques, 3),
			"products_made":      pickDelimited(sewingProducts, 3),
			"machines_used":      pickDelimited(sewingMachines, 3),
			"machine_experience": pick(machineExperience),
			"salary_expectation": pick(salaries),
			"travel_distance":    pick(travelDistances),
			"is_active":          true,
		}
	}
}

const passwordCharset = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

func GenerateRandomPassword(length int) (string, error) {
	var sb strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordCharset))))
		if err != nil {
			return "", err
		}
		sb.WriteByte(passwordCharset[n.Int64()])
	}
	return sb.String(), nil
}
