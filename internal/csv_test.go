package internal

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rm-hull/api-pgd-client/internal/models"
)

func TestParseCSV_Participants(t *testing.T) {
	input := strings.Join([]string{
		"matricula_siape,cpf,cod_unidade_lotacao,situacao,extra",
		"9876543, 11122233344,1234,1,ignored",
		"1234567,55566677788,1234,,",
	}, "\n")

	var siapes []string
	for record := range ParseCSV(strings.NewReader(input), true, models.ParticipantFromCSV) {
		require.NoError(t, record.Error)
		siapes = append(siapes, record.Value.MatriculaSIAPE)
		assert.Equal(t, 1234, record.Value.CodUnidadeLotacao)
	}

	assert.Equal(t, []string{"9876543", "1234567"}, siapes)
}

func TestParseCSV_MapperErrorsCarryLineNumber(t *testing.T) {
	input := "matricula_siape,situacao\n111,1\n222,active\n333,2\n"

	var results []Result[string]
	mapper := func(record, headers []string) (string, error) {
		p, err := models.ParticipantFromCSV(record, headers)
		if err != nil {
			return "", err
		}
		return p.MatriculaSIAPE, nil
	}
	for record := range ParseCSV(strings.NewReader(input), true, mapper) {
		results = append(results, record)
	}

	require.Len(t, results, 3)
	assert.Equal(t, "111", results[0].Value)
	assert.Error(t, results[1].Error)
	assert.Equal(t, 3, results[1].Line)
	assert.Contains(t, results[1].Error.Error(), "line 3")
	assert.Equal(t, "333", results[2].Value)
}

func TestParseCSV_WithoutHeader(t *testing.T) {
	input := "a,b\nc,d\n"
	var rows [][]string
	for record := range ParseCSV(strings.NewReader(input), false, func(record, headers []string) ([]string, error) {
		assert.Nil(t, headers)
		return record, nil
	}) {
		require.NoError(t, record.Error)
		rows = append(rows, record.Value)
	}
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, rows)
}

func TestParseCSV_ReadErrorStops(t *testing.T) {
	input := "a,\"unterminated\nb,c\n"
	var errs []error
	for record := range ParseCSV(strings.NewReader(input), false, func(record, _ []string) ([]string, error) {
		return record, nil
	}) {
		errs = append(errs, record.Error)
	}
	require.Len(t, errs, 1)
	assert.Error(t, errs[0])
}

func TestParseCSV_StopsWhenConsumerBreaks(t *testing.T) {
	input := "1\n2\n3\n"
	count := 0
	for range ParseCSV(strings.NewReader(input), false, func(record, _ []string) (string, error) {
		return record[0], errors.New("ignored")
	}) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}
