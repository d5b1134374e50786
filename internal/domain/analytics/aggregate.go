package analytics

func PatientDemographicsOf(rows []PatientRow) PatientDemographics {
	out := PatientDemographics{
		TotalPatients:         len(rows),
		GenderDistribution:    map[string]int{},
		BloodTypeDistribution: map[string]int{},
		RegionalDistribution:  map[string]int{},
	}
	for _, p := range rows {
		out.GenderDistribution[keyOr(p.Gender, unknownKey)]++
		if k := keyOr(p.BloodType, ""); k != "" {
			out.BloodTypeDistribution[k]++
		}
		if k := keyOr(p.State, ""); k != "" {
			out.RegionalDistribution[k]++
		}
	}
	return out
}

func AppointmentsStatisticsOf(rows []AppointmentRow) AppointmentsStatistics {
	out := AppointmentsStatistics{
		TotalAppointments:  len(rows),
		StatusDistribution: map[string]int{},
		TypeDistribution:   map[string]int{},
	}
	for _, a := range rows {
		out.StatusDistribution[keyOr(&a.Status, unknownKey)]++
		out.TypeDistribution[keyOr(a.AppointmentType, unknownKey)]++
	}
	return out
}

func PrescriptionAnalyticsOf(rows []PrescriptionRow) PrescriptionAnalytics {
	out := PrescriptionAnalytics{
		TotalPrescriptions: len(rows),
		StatusDistribution: map[string]int{},
	}
	for _, p := range rows {
		out.StatusDistribution[keyOr(&p.Status, unknownKey)]++
	}
	return out
}

func HospitalCapacityOf(rows []HospitalRow) HospitalCapacity {
	out := HospitalCapacity{
		TotalHospitals:       len(rows),
		RegionalDistribution: map[string]int{},
	}
	for _, h := range rows {
		if h.TotalBeds != nil {
			out.TotalBeds += *h.TotalBeds
		}
		if h.AvailableBeds != nil {
			out.AvailableBeds += *h.AvailableBeds
		}
		if h.EmergencyServices {
			out.EmergencyServicesCount++
		}
		if k := keyOr(h.State, ""); k != "" {
			out.RegionalDistribution[k]++
		}
	}
	return out
}

func keyOr(v *string, def string) string {
	if v == nil || *v == "" {
		return def
	}
	return *v
}
