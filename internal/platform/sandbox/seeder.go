// Package sandbox generates reproducible demo data for development and
// demo environments: hospitals, one staff profile per role and hospital,
// patients with linked portal accounts, and a spread of appointments and
// prescriptions so analytics reports have something to aggregate.
package sandbox

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/medassist/gateway/internal/platform/auth"
	"github.com/medassist/gateway/internal/platform/rowstore"
)

// SeedConfig controls the volume of generated data.
type SeedConfig struct {
	HospitalCount           int   `json:"hospitalCount"`
	PatientCount            int   `json:"patientCount"`
	AppointmentsPerPatient  int   `json:"appointmentsPerPatient"`
	PrescriptionsPerPatient int   `json:"prescriptionsPerPatient"`
	Seed                    int64 `json:"seed"`
}

func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		HospitalCount:           3,
		PatientCount:            25,
		AppointmentsPerPatient:  2,
		PrescriptionsPerPatient: 1,
		Seed:                    1,
	}
}

// SeedResult summarizes one seed run.
type SeedResult struct {
	Hospitals     int           `json:"hospitals"`
	Profiles      int           `json:"profiles"`
	Patients      int           `json:"patients"`
	Appointments  int           `json:"appointments"`
	Prescriptions int           `json:"prescriptions"`
	TotalRows     int           `json:"totalRows"`
	Duration      time.Duration `json:"duration"`
}

var (
	firstNames = []string{
		"Aarav", "Vivaan", "Aditya", "Arjun", "Sai", "Reyansh", "Krishna",
		"Ishaan", "Rohan", "Kabir", "Ananya", "Diya", "Meera", "Saanvi",
		"Aadhya", "Kavya", "Priya", "Isha", "Riya", "Nisha",
	}
	lastNames = []string{
		"Sharma", "Verma", "Iyer", "Nair", "Reddy", "Patel", "Gupta",
		"Singh", "Menon", "Rao", "Das", "Mukherjee", "Kulkarni", "Joshi",
	}
	regions = []struct{ City, State string }{
		{"Mumbai", "Maharashtra"},
		{"Pune", "Maharashtra"},
		{"Bengaluru", "Karnataka"},
		{"Chennai", "Tamil Nadu"},
		{"Kochi", "Kerala"},
		{"Hyderabad", "Telangana"},
		{"Kolkata", "West Bengal"},
		{"Jaipur", "Rajasthan"},
	}
	genders            = []string{"male", "female", "other"}
	bloodTypes         = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}
	allergies          = []string{"", "", "penicillin", "peanuts", "latex", "sulfa drugs"}
	chronicConditions  = []string{"", "", "type 2 diabetes", "hypertension", "asthma"}
	appointmentTypes   = []string{"consultation", "follow_up", "checkup"}
	appointmentStatus  = []string{"scheduled", "confirmed", "completed", "cancelled"}
	prescriptionStatus = []string{"active", "active", "dispensed", "expired"}
	medications        = []string{
		"Metformin 500 mg twice daily",
		"Amlodipine 5 mg once daily",
		"Salbutamol inhaler as needed",
		"Paracetamol 650 mg every 6 hours for 3 days",
		"Atorvastatin 20 mg at night",
	}
)

// DataGenerator produces rows from a seeded source so the same seed always
// yields the same data.
type DataGenerator struct {
	rng     *rand.Rand
	counter int
	now     time.Time
}

func NewDataGenerator(seed int64, now time.Time) *DataGenerator {
	return &DataGenerator{rng: rand.New(rand.NewSource(seed)), now: now}
}

// nextID draws a UUID from the seeded source.
func (g *DataGenerator) nextID() string {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		panic(fmt.Sprintf("sandbox: draw uuid: %v", err))
	}
	return id.String()
}

func (g *DataGenerator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

func (g *DataGenerator) name() string {
	return g.pick(firstNames) + " " + g.pick(lastNames)
}

func (g *DataGenerator) phone() string {
	return fmt.Sprintf("+91-%d%04d%05d", 7+g.rng.Intn(3), g.rng.Intn(10000), g.rng.Intn(100000))
}

// dateWithin returns a YYYY-MM-DD date up to days away from now; negative
// days look back.
func (g *DataGenerator) dateWithin(days int) string {
	offset := g.rng.Intn(abs(days) + 1)
	if days < 0 {
		offset = -offset
	}
	return g.now.AddDate(0, 0, offset).Format("2006-01-02")
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (g *DataGenerator) Hospital() map[string]any {
	r := regions[g.rng.Intn(len(regions))]
	total := 50 + g.rng.Intn(450)
	return map[string]any{
		"id":                 g.nextID(),
		"name":               r.City + " " + g.pick([]string{"General", "City", "Care", "Memorial"}) + " Hospital",
		"city":               r.City,
		"state":              r.State,
		"contact_number":     g.phone(),
		"total_beds":         total,
		"available_beds":     g.rng.Intn(total + 1),
		"icu_beds":           total / 10,
		"emergency_services": g.rng.Intn(4) != 0,
		"created_at":         g.now,
	}
}

// Profile builds a user_profiles row. hospitalID may be empty.
func (g *DataGenerator) Profile(role auth.Role, hospitalID string) map[string]any {
	g.counter++
	row := map[string]any{
		"id":             g.nextID(),
		"user_id":        g.nextID(),
		"email":          fmt.Sprintf("%s.%d@sandbox.medassist.local", role, g.counter),
		"full_name":      g.name(),
		"role":           string(role),
		"contact_number": g.phone(),
		"hospital_id":    optional(hospitalID),
		"verified":       true,
		"created_at":     g.now,
	}
	if role == auth.RoleDoctor || role == auth.RolePharmacy {
		row["license_number"] = fmt.Sprintf("LIC-%06d", g.rng.Intn(1000000))
	}
	return row
}

func (g *DataGenerator) Patient(userID string) map[string]any {
	r := regions[g.rng.Intn(len(regions))]
	created := g.now.AddDate(0, 0, -g.rng.Intn(365))
	return map[string]any{
		"id":                         g.nextID(),
		"user_id":                    optional(userID),
		"health_id":                  fmt.Sprintf("MA-%010d", g.rng.Int63n(1e10)),
		"full_name":                  g.name(),
		"date_of_birth":              g.now.AddDate(-(5 + g.rng.Intn(80)), 0, -g.rng.Intn(365)).Format("2006-01-02"),
		"gender":                     g.pick(genders),
		"blood_type":                 g.pick(bloodTypes),
		"contact_number":             g.phone(),
		"city":                       r.City,
		"state":                      r.State,
		"allergies":                  optional(g.pick(allergies)),
		"chronic_conditions":         optional(g.pick(chronicConditions)),
		"emergency_contact_name":     g.name(),
		"emergency_contact_number":   g.phone(),
		"emergency_contact_relation": g.pick([]string{"spouse", "parent", "sibling", "child"}),
		"version":                    1,
		"created_at":                 created,
		"updated_at":                 created,
	}
}

func (g *DataGenerator) Appointment(patientID, doctorID, hospitalID string) map[string]any {
	date := g.dateWithin(60 - g.rng.Intn(120))
	clock := fmt.Sprintf("%02d:%s", 9+g.rng.Intn(8), g.pick([]string{"00", "30"}))
	return map[string]any{
		"id":                   g.nextID(),
		"patient_id":           patientID,
		"doctor_id":            doctorID,
		"hospital_id":          hospitalID,
		"appointment_date":     date,
		"appointment_time":     clock,
		"appointment_datetime": date + "T" + clock + ":00",
		"duration_minutes":     30,
		"status":               g.pick(appointmentStatus),
		"appointment_type":     g.pick(appointmentTypes),
		"created_at":           g.now,
	}
}

func (g *DataGenerator) Prescription(patientID, doctorID string) map[string]any {
	issued := g.now.AddDate(0, 0, -g.rng.Intn(91)).Truncate(24 * time.Hour)
	return map[string]any{
		"id":                g.nextID(),
		"patient_id":        patientID,
		"doctor_id":         doctorID,
		"prescription_text": g.pick(medications),
		"status":            g.pick(prescriptionStatus),
		"date_issued":       issued,
		"version":           1,
		"created_at":        g.now,
		"updated_at":        g.now,
	}
}

// staffRoles get one profile per hospital.
var staffRoles = []auth.Role{auth.RoleDoctor, auth.RoleLabAttendant, auth.RolePharmacy, auth.RoleHospitalAdmin}

// Seeder builds the full row set for a SeedConfig.
type Seeder struct {
	cfg  SeedConfig
	gen  *DataGenerator
	rows map[string][]map[string]any
}

func NewSeeder(cfg SeedConfig, now time.Time) *Seeder {
	def := DefaultSeedConfig()
	if cfg.HospitalCount <= 0 {
		cfg.HospitalCount = def.HospitalCount
	}
	if cfg.PatientCount < 0 {
		cfg.PatientCount = 0
	}
	return &Seeder{cfg: cfg, gen: NewDataGenerator(cfg.Seed, now), rows: map[string][]map[string]any{}}
}

func (s *Seeder) add(table string, row map[string]any) map[string]any {
	s.rows[table] = append(s.rows[table], row)
	return row
}

// Generate builds every row in memory. It is deterministic for a given
// seed and clock.
func (s *Seeder) Generate() *SeedResult {
	start := time.Now()
	g := s.gen

	var hospitals, doctors []string
	for i := 0; i < s.cfg.HospitalCount; i++ {
		h := s.add("hospitals", g.Hospital())
		id := h["id"].(string)
		hospitals = append(hospitals, id)
		for _, role := range staffRoles {
			p := s.add("user_profiles", g.Profile(role, id))
			if role == auth.RoleDoctor {
				doctors = append(doctors, p["user_id"].(string))
			}
		}
	}
	s.add("user_profiles", g.Profile(auth.RoleAmbulance, ""))
	s.add("user_profiles", g.Profile(auth.RoleHealthMinistry, ""))

	for i := 0; i < s.cfg.PatientCount; i++ {
		account := s.add("user_profiles", g.Profile(auth.RolePatient, ""))
		p := s.add("patients", g.Patient(account["user_id"].(string)))
		pid := p["id"].(string)
		for j := 0; j < s.cfg.AppointmentsPerPatient; j++ {
			k := g.rng.Intn(len(hospitals))
			s.add("appointments", g.Appointment(pid, doctors[k], hospitals[k]))
		}
		for j := 0; j < s.cfg.PrescriptionsPerPatient; j++ {
			s.add("prescriptions", g.Prescription(pid, doctors[g.rng.Intn(len(doctors))]))
		}
	}

	res := &SeedResult{
		Hospitals:     len(s.rows["hospitals"]),
		Profiles:      len(s.rows["user_profiles"]),
		Patients:      len(s.rows["patients"]),
		Appointments:  len(s.rows["appointments"]),
		Prescriptions: len(s.rows["prescriptions"]),
	}
	res.TotalRows = res.Hospitals + res.Profiles + res.Patients + res.Appointments + res.Prescriptions
	res.Duration = time.Since(start)
	return res
}

// Rows returns the generated rows of table.
func (s *Seeder) Rows(table string) []map[string]any {
	return s.rows[table]
}

// loadOrder respects foreign keys.
var loadOrder = []string{"hospitals", "user_profiles", "patients", "appointments", "prescriptions"}

// Load generates the data set and inserts it through store.
func (s *Seeder) Load(ctx context.Context, store rowstore.Store) (*SeedResult, error) {
	res := s.Generate()
	err := rowstore.RunInTx(ctx, store, func(ctx context.Context) error {
		for _, table := range loadOrder {
			for _, row := range s.rows[table] {
				if err := store.Insert(ctx, table, row, nil); err != nil {
					return fmt.Errorf("seed %s: %w", table, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
