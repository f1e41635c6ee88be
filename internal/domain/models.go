package domain

import "time"

// Status values shared by soft-deletable records. The original data model used
// a nullable deletion timestamp; here the state is a tagged status checked once
// at the repository boundary.
const (
	StatusActive  = "active"
	StatusDeleted = "deleted"
)

type Product struct {
	ID        string    `json:"id"`
	Nome      string    `json:"nome"`
	Categoria string    `json:"categoria"`
	Status    string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type ProductCreateRequest struct {
	Nome      string `json:"nome"`
	Categoria string `json:"categoria"`
}

type ProductUpdateRequest struct {
	Nome      *string `json:"nome,omitempty"`
	Categoria *string `json:"categoria,omitempty"`
}

// Variant is the sellable unit: one color/size of a product. QuantidadeLoja and
// QuantidadeEstoque are the two per-location stock counters; both are
// non-negative at all times and only mutated through the atomic delta
// primitive of the stock store.
type Variant struct {
	ID                string    `json:"id"`
	ProductID         string    `json:"product_id"`
	Referencia        string    `json:"referencia"`
	Cor               string    `json:"cor,omitempty"`
	Tamanho           string    `json:"tamanho,omitempty"`
	PrecoVendaCents   int64     `json:"preco_venda_cents"`
	QuantidadeLoja    int       `json:"quantidade_loja"`
	QuantidadeEstoque int       `json:"quantidade_estoque"`
	Status            string    `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
}

type VariantCreateRequest struct {
	Referencia        string `json:"referencia"`
	Cor               string `json:"cor"`
	Tamanho           string `json:"tamanho"`
	PrecoVendaCents   int64  `json:"preco_venda_cents"`
	QuantidadeLoja    int    `json:"quantidade_loja"`
	QuantidadeEstoque int    `json:"quantidade_estoque"`
}

type VariantUpdateRequest struct {
	Cor             *string `json:"cor,omitempty"`
	Tamanho         *string `json:"tamanho,omitempty"`
	PrecoVendaCents *int64  `json:"preco_venda_cents,omitempty"`
}

// Stock locations.
const (
	LocationLoja       = "LOJA"
	LocationEstoque    = "ESTOQUE"
	LocationFornecedor = "FORNECEDOR"
)

// Movement kinds. The first five are the manual-adjustment kinds; the rest are
// produced only by the transaction processor.
const (
	MovementEntrada             = "entrada"
	MovementSaida               = "saida"
	MovementTransferencia       = "transferencia"
	MovementPerda               = "perda"
	MovementVenda               = "venda"
	MovementDevolucao           = "devolucao"
	MovementDevolucaoFornecedor = "devolucao_fornecedor"
	MovementTroca               = "troca"
)

// StockMovement is one append-only ledger entry. Movements are never edited or
// removed; corrections are made by appending a compensating movement.
type StockMovement struct {
	ID          string    `json:"id"`
	VariantID   string    `json:"variant_id"`
	EmployeeID  string    `json:"employee_id"`
	Tipo        string    `json:"tipo"`
	Quantidade  int       `json:"quantidade"`
	Origem      string    `json:"origem,omitempty"`
	Destino     string    `json:"destino,omitempty"`
	SaleID      string    `json:"sale_id,omitempty"`
	Observacoes string    `json:"observacoes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type MovementRequest struct {
	VariantID   string `json:"variant_id"`
	Tipo        string `json:"tipo"`
	Quantidade  int    `json:"quantidade"`
	Origem      string `json:"origem,omitempty"`
	Destino     string `json:"destino,omitempty"`
	Observacoes string `json:"observacoes,omitempty"`
}

// Transaction kinds.
const (
	TransacaoVenda     = "VENDA"
	TransacaoDevolucao = "DEVOLUCAO"
	TransacaoTroca     = "TROCA"
)

type Sale struct {
	ID                 string    `json:"id"`
	FaturaNumero       string    `json:"fatura_numero"`
	EmployeeID         string    `json:"employee_id"`
	TipoTransacao      string    `json:"tipo_transacao"`
	DescontoPercentual float64   `json:"desconto_percentual"`
	TotalVendaCents    int64     `json:"total_venda_cents"`
	OriginalSaleID     string    `json:"original_sale_id,omitempty"`
	Status             string    `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
}

// TransactionItem is one line of a submitted transaction. It is not persisted
// as its own row; the movements tied to the sale carry the same information.
type TransactionItem struct {
	VariantID          string `json:"variant_id"`
	Quantidade         int    `json:"quantidade"`
	PrecoUnitarioCents int64  `json:"preco_unitario"`
}

// TransactionRequest is the single submission payload for VENDA, DEVOLUCAO and
// TROCA transactions.
type TransactionRequest struct {
	FaturaNumero       string            `json:"fatura_numero"`
	DescontoPercentual float64           `json:"desconto_percentual"`
	TipoTransacao      string            `json:"tipo_transacao"`
	Itens              []TransactionItem `json:"itens"`
	OriginalSaleID     string            `json:"original_sale_id,omitempty"`
	DestinoDevolucao   string            `json:"destino_devolucao,omitempty"`
}

type TransactionResponse struct {
	Success    bool   `json:"success"`
	SaleID     string `json:"sale_id"`
	TotalCents int64  `json:"total_cents"`
	Message    string `json:"message"`
}

// SaleItem is a reconstructed line item of a past sale, derived from the
// movement log plus variant display metadata.
type SaleItem struct {
	MovementID         string `json:"movement_id"`
	VariantID          string `json:"variant_id"`
	Referencia         string `json:"referencia"`
	Cor                string `json:"cor,omitempty"`
	Tamanho            string `json:"tamanho,omitempty"`
	ProdutoNome        string `json:"produto_nome"`
	Quantidade         int    `json:"quantidade"`
	PrecoUnitarioCents int64  `json:"preco_unitario_cents"`
}

type SaleLookupResponse struct {
	Sale  Sale       `json:"sale"`
	Itens []SaleItem `json:"itens"`
}

// Employee roles and statuses. Only "ativo" employees may log in or act.
const (
	RoleAdmin    = "admin"
	RoleVendedor = "vendedor"

	EmployeeAtivo    = "ativo"
	EmployeePendente = "pendente"
	EmployeeInativo  = "inativo"
)

type Employee struct {
	ID           string    `json:"id"`
	NomeCompleto string    `json:"nome_completo"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type EmployeeStatusRequest struct {
	Status string `json:"status"`
}

type SignupRequest struct {
	NomeCompleto string `json:"nome_completo"`
	Email        string `json:"email"`
	Password     string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	EmployeeID  string `json:"employee_id"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

// Actor is the explicit capability value carried through context: the employee
// performing an operation, resolved from the bearer token at the HTTP
// boundary. Never inferred from ambient session state.
type Actor struct {
	EmployeeID string
	Nome       string
	Role       string
}

type Supplier struct {
	ID        string    `json:"id"`
	Nome      string    `json:"nome"`
	CNPJ      string    `json:"cnpj,omitempty"`
	Telefone  string    `json:"telefone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Status    string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type SupplierCreateRequest struct {
	Nome     string `json:"nome"`
	CNPJ     string `json:"cnpj"`
	Telefone string `json:"telefone"`
	Email    string `json:"email"`
}

type SupplierUpdateRequest struct {
	Nome     *string `json:"nome,omitempty"`
	CNPJ     *string `json:"cnpj,omitempty"`
	Telefone *string `json:"telefone,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// CartItem is a staged line in a terminal cart. The stock fields are the
// snapshot observed when the variant was added; they are advisory only and
// re-validated server-side at transaction time.
type CartItem struct {
	VariantID         string `json:"variant_id"`
	Referencia        string `json:"referencia"`
	ProdutoNome       string `json:"produto_nome"`
	PrecoCents        int64  `json:"preco_cents"`
	Quantidade        int    `json:"quantidade"`
	QuantidadeLoja    int    `json:"quantidade_loja"`
	QuantidadeEstoque int    `json:"quantidade_estoque"`
	SubtotalCents     int64  `json:"subtotal_cents"`
}

type CartSnapshot struct {
	Terminal      string     `json:"terminal"`
	Itens         []CartItem `json:"itens"`
	SubtotalCents int64      `json:"subtotal_cents"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type CartQuantityRequest struct {
	VariantID  string `json:"variant_id"`
	Quantidade int    `json:"quantidade"`
}

type DashboardReport struct {
	Date                  string          `json:"date"`
	VendasHoje            int             `json:"vendas_hoje"`
	TotalVendidoCents     int64           `json:"total_vendido_cents"`
	DevolucoesHoje        int             `json:"devolucoes_hoje"`
	VariantesEstoqueBaixo int             `json:"variantes_estoque_baixo"`
	UltimasMovimentacoes  []StockMovement `json:"ultimas_movimentacoes"`
}
