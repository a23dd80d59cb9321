package tabular

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshiksha/exam-api/internal/models"
)

func testSubjects() []models.Subject {
	return []models.Subject{
		{Name: "Mathematics", DisplayOrder: 1},
		{Name: "Science", HasPractical: true, DisplayOrder: 2},
		{Name: "Sanskrit", IsAdditional: true, DisplayOrder: 3},
	}
}

func TestTemplateHeaders(t *testing.T) {
	data, err := Template(testSubjects())
	require.NoError(t, err)

	got := strings.TrimSpace(string(data))
	assert.Equal(t, "Roll Number,Enrollment No,Name,Father Name,Date of Birth,Mathematics,Science Theory,Science Practical,Sanskrit (Optional)", got)
}

func TestParseMapsColumnsToSubjects(t *testing.T) {
	sheet := strings.Join([]string{
		"Roll Number,Enrollment No,Name,Father Name,Date of Birth,Mathematics,Science Theory,Science Practical,Sanskrit (Optional)",
		"101,EN-2025-101,Asha Verma,Ramesh Verma,2010-04-12,40,25,12,",
	}, "\n")

	parser := NewParser(testSubjects())
	rows, err := parser.Parse(strings.NewReader(sheet))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "101", row.RollNumber)
	assert.Equal(t, "EN-2025-101", row.EnrollmentNo)
	assert.Equal(t, "Asha Verma", row.Name)
	assert.Equal(t, "Ramesh Verma", row.FatherName)
	assert.Equal(t, "2010-04-12", row.DateOfBirth)

	require.Contains(t, row.Marks, "Mathematics")
	require.NotNil(t, row.Marks["Mathematics"].Value)
	assert.Equal(t, "40", *row.Marks["Mathematics"].Value)

	require.Contains(t, row.Marks, "Science")
	require.NotNil(t, row.Marks["Science"].Theory)
	require.NotNil(t, row.Marks["Science"].Practical)
	assert.Equal(t, "25", *row.Marks["Science"].Theory)
	assert.Equal(t, "12", *row.Marks["Science"].Practical)

	// Blank cells stay absent so the ingestion layer treats them as skips.
	assert.NotContains(t, row.Marks, "Sanskrit")
}

func TestParsePartialPracticalPairStaysRaw(t *testing.T) {
	sheet := strings.Join([]string{
		"Roll Number,Enrollment No,Name,Father Name,Date of Birth,Science Theory,Science Practical",
		"102,EN-2025-102,Kiran Rao,Suresh Rao,2010-07-01,30,",
	}, "\n")

	parser := NewParser(testSubjects())
	rows, err := parser.Parse(strings.NewReader(sheet))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	mark := rows[0].Marks["Science"]
	require.NotNil(t, mark.Theory)
	assert.Equal(t, "30", *mark.Theory)
	assert.Nil(t, mark.Practical)
}

func TestParseRejectsUnknownColumn(t *testing.T) {
	sheet := "Roll Number,Enrollment No,Name,Father Name,Date of Birth,History\n"

	parser := NewParser(testSubjects())
	_, err := parser.Parse(strings.NewReader(sheet))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "History")
}

func TestParseRejectsMissingIdentityColumn(t *testing.T) {
	sheet := "Roll Number,Name,Father Name,Date of Birth,Mathematics\n"

	parser := NewParser(testSubjects())
	_, err := parser.Parse(strings.NewReader(sheet))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Enrollment No")
}

func TestParseSkipsBlankRecords(t *testing.T) {
	sheet := strings.Join([]string{
		"Roll Number,Enrollment No,Name,Father Name,Date of Birth,Mathematics",
		",,,,,",
		"103,EN-2025-103,Meena Das,Prakash Das,2010-01-20,55",
	}, "\n")

	parser := NewParser(testSubjects())
	rows, err := parser.Parse(strings.NewReader(sheet))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "103", rows[0].RollNumber)
}
