package pgd

// Token is issued by the /token endpoint.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// IsZero reports whether the token has not been fetched yet.
func (t Token) IsZero() bool {
	return t.AccessToken == "" && t.TokenType == ""
}

type User struct {
	Email                  string `json:"email"`
	IsAdmin                bool   `json:"is_admin"`
	Disabled               bool   `json:"disabled"`
	OrigemUnidade          string `json:"origem_unidade"`
	CodUnidadeAutorizadora int    `json:"cod_unidade_autorizadora"`
	SistemaGerador         string `json:"sistema_gerador"`
}

// Participant is a public servant enrolled in the programme, identified by
// matricula SIAPE and lotação unit.
type Participant struct {
	CPF                    string `json:"cpf"`
	MatriculaSIAPE         string `json:"matricula_siape"`
	OrigemUnidade          string `json:"origem_unidade"`
	CodUnidadeAutorizadora int    `json:"cod_unidade_autorizadora"`
	CodUnidadeLotacao      int    `json:"cod_unidade_lotacao"`
	CodUnidadeInstituidora int    `json:"cod_unidade_instituidora"`
	Situacao               int    `json:"situacao"`
	ModalidadeExecucao     int    `json:"modalidade_execucao"`
	DataAssinaturaTCR      string `json:"data_assinatura_tcr"`
}

// DeliveryPlan is a unit's plano de entregas.
type DeliveryPlan struct {
	OrigemUnidade          string     `json:"origem_unidade"`
	CodUnidadeAutorizadora int        `json:"cod_unidade_autorizadora"`
	CodUnidadeInstituidora int        `json:"cod_unidade_instituidora"`
	CodUnidadeExecutora    int        `json:"cod_unidade_executora"`
	IDPlanoEntregas        string     `json:"id_plano_entregas"`
	Status                 int        `json:"status"`
	DataInicio             string     `json:"data_inicio"`
	DataTermino            string     `json:"data_termino"`
	Avaliacao              int        `json:"avaliacao"`
	DataAvaliacao          string     `json:"data_avaliacao"`
	Entregas               []Delivery `json:"entregas"`
}

// withDefaults returns a copy whose lists encode as [] rather than null.
func (p DeliveryPlan) withDefaults() *DeliveryPlan {
	if p.Entregas == nil {
		p.Entregas = []Delivery{}
	}
	return &p
}

// DefaultTipoMeta is the goal type used by NewDelivery.
const DefaultTipoMeta = "unidade"

type Delivery struct {
	IDEntrega               string `json:"id_entrega"`
	EntregaCancelada        bool   `json:"entrega_cancelada"`
	NomeEntrega             string `json:"nome_entrega"`
	MetaEntrega             int    `json:"meta_entrega"`
	TipoMeta                string `json:"tipo_meta"`
	DataEntrega             string `json:"data_entrega"`
	NomeUnidadeDemandante   string `json:"nome_unidade_demandante"`
	NomeUnidadeDestinataria string `json:"nome_unidade_destinataria"`
}

// NewDelivery returns a Delivery with the API's default goal type.
func NewDelivery() Delivery {
	return Delivery{TipoMeta: DefaultTipoMeta}
}

// WorkPlan is a participant's plano de trabalho.
type WorkPlan struct {
	OrigemUnidade                 string            `json:"origem_unidade"`
	CodUnidadeAutorizadora        int               `json:"cod_unidade_autorizadora"`
	IDPlanoTrabalho               string            `json:"id_plano_trabalho"`
	Status                        int               `json:"status"`
	CodUnidadeExecutora           int               `json:"cod_unidade_executora"`
	CPFParticipante               string            `json:"cpf_participante"`
	MatriculaSIAPE                string            `json:"matricula_siape"`
	CodUnidadeLotacaoParticipante int               `json:"cod_unidade_lotacao_participante"`
	DataInicio                    string            `json:"data_inicio"`
	DataTermino                   string            `json:"data_termino"`
	CargaHorariaDisponivel        int               `json:"carga_horaria_disponivel"`
	Contribuicoes                 []Contribution    `json:"contribuicoes"`
	AvaliacoesRegistrosExecucao   []ExecutionReview `json:"avaliacoes_registros_execucao"`
}

func (p WorkPlan) withDefaults() *WorkPlan {
	if p.Contribuicoes == nil {
		p.Contribuicoes = []Contribution{}
	}
	if p.AvaliacoesRegistrosExecucao == nil {
		p.AvaliacoesRegistrosExecucao = []ExecutionReview{}
	}
	return &p
}

type Contribution struct {
	IDContribuicao         string `json:"id_contribuicao"`
	TipoContribuicao       int    `json:"tipo_contribuicao"`
	PercentualContribuicao int    `json:"percentual_contribuicao"`
	IDPlanoEntregas        string `json:"id_plano_entregas"`
	IDEntrega              string `json:"id_entrega"`
}

// ExecutionReview is the evaluation of one execution period of a work plan.
type ExecutionReview struct {
	IDPeriodoAvaliativo            string `json:"id_periodo_avaliativo"`
	DataInicioPeriodoAvaliativo    string `json:"data_inicio_periodo_avaliativo"`
	DataFimPeriodoAvaliativo       string `json:"data_fim_periodo_avaliativo"`
	AvaliacaoRegistrosExecucao     int    `json:"avaliacao_registros_execucao"`
	DataAvaliacaoRegistrosExecucao string `json:"data_avaliacao_registros_execucao"`
}
