// Package schema defines the fixed feature schema and prediction targets for
// the MEPS utilization models. The column order is a training-time invariant:
// the saved pipelines encode it and nothing at runtime can detect a mismatch,
// so this package is the single source of truth for it.
package schema

import "math"

// Targets lists every modeled annual utilization count. Each target is served
// by exactly one pipeline artifact.
var Targets = []string{
	"pcp_visits",
	"outpatient_visits",
	"er_visits",
	"inpatient_admits",
	"home_health_visits",
	"rx_fills",
	"dental_visits",
	"equipment_purchases",
}

// Columns is the ordered feature schema expected by the saved pipelines.
// Do not reorder.
var Columns = []string{
	"age_years_2022",
	"gender",
	"race_ethnicity",
	"hispanic_origin_category",
	"census_region",
	"education_years",
	"highest_degree_achieved",
	"family_income_2022",
	"poverty_level_pct",
	"poverty_category",
	"employment_status",
	"hours_worked_per_week",
	"occupation_industry_category",
	"family_size",
	"marital_status",
	"spouse_in_household",
	"insurance_coverage_type",
	"has_usual_source_of_care",
	"usual_care_location_type",
	"delayed_care_due_to_cost",
	"delayed_prescription_due_to_cost",
	"received_snap",
	"snap_benefit_value_2022",
	"bmi",
	"smoking_frequency",
	"alcohol_consumption_frequency",
	"exercise_days_per_week",
	"english_proficiency",
	"us_born_flag",
	"years_in_us",
	"difficulty_lifting_carrying",
	"difficulty_walking_stairs",
	"any_activity_limitation",
	"cognitive_limitation",
	"k6_distress_score",
	"hopelessness_frequency_30d",
	"sadness_frequency_30d",
}

// Features is the sparse prediction input. Every field is optional; nil means
// the value is absent and is propagated to the pipelines as a missing value,
// never defaulted to zero. Unknown JSON fields are ignored on decode.
type Features struct {
	AgeYears2022                 *float64 `json:"age_years_2022"`
	Gender                       *float64 `json:"gender"`
	RaceEthnicity                *float64 `json:"race_ethnicity"`
	HispanicOriginCategory       *float64 `json:"hispanic_origin_category"`
	CensusRegion                 *float64 `json:"census_region"`
	EducationYears               *float64 `json:"education_years"`
	HighestDegreeAchieved        *float64 `json:"highest_degree_achieved"`
	FamilyIncome2022             *float64 `json:"family_income_2022"`
	PovertyLevelPct              *float64 `json:"poverty_level_pct"`
	PovertyCategory              *float64 `json:"poverty_category"`
	EmploymentStatus             *float64 `json:"employment_status"`
	HoursWorkedPerWeek           *float64 `json:"hours_worked_per_week"`
	OccupationIndustryCategory   *float64 `json:"occupation_industry_category"`
	FamilySize                   *float64 `json:"family_size"`
	MaritalStatus                *float64 `json:"marital_status"`
	SpouseInHousehold            *float64 `json:"spouse_in_household"`
	InsuranceCoverageType        *float64 `json:"insurance_coverage_type"`
	HasUsualSourceOfCare         *float64 `json:"has_usual_source_of_care"`
	UsualCareLocationType        *float64 `json:"usual_care_location_type"`
	DelayedCareDueToCost         *float64 `json:"delayed_care_due_to_cost"`
	DelayedPrescriptionDueToCost *float64 `json:"delayed_prescription_due_to_cost"`
	ReceivedSnap                 *float64 `json:"received_snap"`
	SnapBenefitValue2022         *float64 `json:"snap_benefit_value_2022"`
	BMI                          *float64 `json:"bmi"`
	SmokingFrequency             *float64 `json:"smoking_frequency"`
	AlcoholConsumptionFrequency  *float64 `json:"alcohol_consumption_frequency"`
	ExerciseDaysPerWeek          *float64 `json:"exercise_days_per_week"`
	EnglishProficiency           *float64 `json:"english_proficiency"`
	USBornFlag                   *float64 `json:"us_born_flag"`
	YearsInUS                    *float64 `json:"years_in_us"`
	DifficultyLiftingCarrying    *float64 `json:"difficulty_lifting_carrying"`
	DifficultyWalkingStairs      *float64 `json:"difficulty_walking_stairs"`
	AnyActivityLimitation        *float64 `json:"any_activity_limitation"`
	CognitiveLimitation          *float64 `json:"cognitive_limitation"`
	K6DistressScore              *float64 `json:"k6_distress_score"`
	HopelessnessFrequency30d     *float64 `json:"hopelessness_frequency_30d"`
	SadnessFrequency30d          *float64 `json:"sadness_frequency_30d"`
}

// fields returns the feature values in Columns order. The enumeration is
// static so the mapping between Columns and struct fields is checked at
// compile time by length-sensitive tests, not discovered by reflection.
func (f *Features) fields() []*float64 {
	return []*float64{
		f.AgeYears2022,
		f.Gender,
		f.RaceEthnicity,
		f.HispanicOriginCategory,
		f.CensusRegion,
		f.EducationYears,
		f.HighestDegreeAchieved,
		f.FamilyIncome2022,
		f.PovertyLevelPct,
		f.PovertyCategory,
		f.EmploymentStatus,
		f.HoursWorkedPerWeek,
		f.OccupationIndustryCategory,
		f.FamilySize,
		f.MaritalStatus,
		f.SpouseInHousehold,
		f.InsuranceCoverageType,
		f.HasUsualSourceOfCare,
		f.UsualCareLocationType,
		f.DelayedCareDueToCost,
		f.DelayedPrescriptionDueToCost,
		f.ReceivedSnap,
		f.SnapBenefitValue2022,
		f.BMI,
		f.SmokingFrequency,
		f.AlcoholConsumptionFrequency,
		f.ExerciseDaysPerWeek,
		f.EnglishProficiency,
		f.USBornFlag,
		f.YearsInUS,
		f.DifficultyLiftingCarrying,
		f.DifficultyWalkingStairs,
		f.AnyActivityLimitation,
		f.CognitiveLimitation,
		f.K6DistressScore,
		f.HopelessnessFrequency30d,
		f.SadnessFrequency30d,
	}
}

// Row assembles the single feature row consumed by the pipelines: one value
// per column, in Columns order. Absent fields become NaN so that downstream
// imputation sees them as missing rather than zero.
func (f *Features) Row() []float64 {
	vals := f.fields()
	row := make([]float64, len(vals))
	for i, v := range vals {
		if v == nil {
			row[i] = math.NaN()
		} else {
			row[i] = *v
		}
	}
	return row
}
