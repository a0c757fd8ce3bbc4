package types

// InfectionRecord is one row of the hospital infection table. Fields keep the
// source text; Score is the coerced numeric value of ScoreRaw.
type InfectionRecord struct {
	FacilityID         string  `json:"facility_id"`
	HospitalID         string  `json:"hospital_id"`
	Address            string  `json:"address,omitempty"`
	City               string  `json:"city,omitempty"`
	State              string  `json:"state"`
	ZipCode            string  `json:"zip_code,omitempty"`
	CountyName         string  `json:"county_name,omitempty"`
	MeasureName        string  `json:"measure_name"`
	ComparedToNational string  `json:"compared_to_national,omitempty"`
	ScoreRaw           string  `json:"score_raw,omitempty"`
	Score              float64 `json:"score"`
	StartDate          string  `json:"start_date"`
	EndDate            string  `json:"end_date,omitempty"`
	Lat                string  `json:"lat,omitempty"`
	Lon                string  `json:"lon,omitempty"`
}

// StateAggregate maps a state name to its summed score.
type StateAggregate map[string]float64

type HospitalAggregate struct {
	HospitalID            string  `json:"hospital_id"`
	TotalScore            float64 `json:"total_score"`
	Benchmark             string  `json:"benchmark"`
	MostFrequentBenchmark string  `json:"most_frequent_benchmark"`
	Lon                   string  `json:"lon"`
	Lat                   string  `json:"lat"`
}

// All is the wildcard value for every filter dimension.
const All = "all"

// NoData is shown wherever a value is missing.
const NoData = "No data"
