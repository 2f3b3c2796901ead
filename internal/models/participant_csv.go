package models

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/rm-hull/api-pgd-client/pkg/pgd"
)

// ParticipantCSVHeaders are the recognised column names, the same as the API
// field names.
var ParticipantCSVHeaders = []string{
	"cpf",
	"matricula_siape",
	"origem_unidade",
	"cod_unidade_autorizadora",
	"cod_unidade_lotacao",
	"cod_unidade_instituidora",
	"situacao",
	"modalidade_execucao",
	"data_assinatura_tcr",
}

// ParticipantFromCSV maps a row onto a Participant by column name. Unknown
// columns are ignored; blank numeric cells are left at zero.
func ParticipantFromCSV(record, headers []string) (*pgd.Participant, error) {
	if len(headers) == 0 {
		return nil, errors.New("participant rows need a header line")
	}

	p := &pgd.Participant{}
	for i, header := range headers {
		if i >= len(record) {
			break
		}
		value := strings.TrimSpace(record[i])

		var err error
		switch strings.ToLower(strings.TrimSpace(header)) {
		case "cpf":
			p.CPF = value
		case "matricula_siape":
			p.MatriculaSIAPE = value
		case "origem_unidade":
			p.OrigemUnidade = value
		case "data_assinatura_tcr":
			p.DataAssinaturaTCR = value
		case "cod_unidade_autorizadora":
			p.CodUnidadeAutorizadora, err = atoi(header, value)
		case "cod_unidade_lotacao":
			p.CodUnidadeLotacao, err = atoi(header, value)
		case "cod_unidade_instituidora":
			p.CodUnidadeInstituidora, err = atoi(header, value)
		case "situacao":
			p.Situacao, err = atoi(header, value)
		case "modalidade_execucao":
			p.ModalidadeExecucao, err = atoi(header, value)
		}
		if err != nil {
			return nil, err
		}
	}

	if p.MatriculaSIAPE == "" {
		return nil, errors.New("matricula_siape is required")
	}
	return p, nil
}

// ParticipantToCSV is the inverse of ParticipantFromCSV for
// ParticipantCSVHeaders.
func ParticipantToCSV(p *pgd.Participant) []string {
	return []string{
		p.CPF,
		p.MatriculaSIAPE,
		p.OrigemUnidade,
		strconv.Itoa(p.CodUnidadeAutorizadora),
		strconv.Itoa(p.CodUnidadeLotacao),
		strconv.Itoa(p.CodUnidadeInstituidora),
		strconv.Itoa(p.Situacao),
		strconv.Itoa(p.ModalidadeExecucao),
		p.DataAssinaturaTCR,
	}
}

func atoi(column, value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrapf(err, "column %s", column)
	}
	return n, nil
}
