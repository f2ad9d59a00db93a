package storage

// TestCase is one unsegmented line with its gold BIES tags.
type TestCase struct {
	Unseg    string `json:"unseg"`
	TrueBIES string `json:"true_bies"`
}

// TestText is the fixture file layout.
type TestText struct {
	TestCases []TestCase `json:"testcases"`
}
