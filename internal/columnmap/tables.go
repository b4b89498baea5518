package columnmap

// Canonical field names shared by the processors.
const (
	CustomerID = "customer_id"
	Name       = "name"
	Address    = "address"
	ZoneCode   = "zone_code"
	Tariff     = "tariff"
	Target     = "target_amount"
	Volume     = "volume"

	PaymentDate = "payment_date"
	Amount      = "amount"
	WaterVolume = "water_volume"
	BillPeriod  = "bill_period"
	Periode     = "periode"

	OutstandingBalance = "outstanding_balance"

	BillDate    = "bill_date"
	TotalAmount = "total_amount"
	PCEZBK      = "pcezbk"

	Rayon          = "rayon"
	ReadMethod     = "read_method"
	SkipStatus     = "skip_status"
	TroubleStatus  = "trouble_status"
	SPMStatus      = "spm_status"
	SpecialMessage = "special_message"
	PriorReading   = "prior_reading"
	CurrentReading = "current_reading"
	BillAmount     = "bill_amount"
	FollowUp       = "follow_up"
	Tag1           = "tag1"
	Tag2           = "tag2"
)

// MC is the billing roster (master customer) extract.
var MC = Table{
	{CustomerID, []string{"NOMEN", "NO_PLGGN", "NOPEL"}},
	{ZoneCode, []string{"ZONA_NOVAK", "ZONA"}},
	{Name, []string{"NAMA_PEL", "NAMA"}},
	{Address, []string{"ALM1_PEL", "ALAMAT"}},
	{Tariff, []string{"TARIF", "KODETARIF"}},
	{Target, []string{"NOMINAL", "REK_AIR"}},
	{Volume, []string{"KUBIK", "KUBIKASI"}},
}

// Collection is the payment collection extract.
var Collection = Table{
	{CustomerID, []string{"NO_PLGGN", "NOPEL", "NOMEN"}},
	{PaymentDate, []string{"TGL_BAYAR", "TANGGAL"}},
	{Amount, []string{"JML_BAYAR", "JUMLAH"}},
	{WaterVolume, []string{"VOLUME_AIR", "VOLUME"}},
	{BillPeriod, []string{"BILL_PERIOD", "PERIODE"}},
}

// MB is the master-bayar payment ledger extract.
var MB = Table{
	{CustomerID, []string{"NO_PLGGN", "NOPEL", "NOMEN"}},
	{PaymentDate, []string{"TGL_BAYAR", "TANGGAL"}},
	{Amount, []string{"JML_BAYAR", "JUMLAH", "NOMINAL"}},
	{Periode, []string{"PERIODE"}},
}

// ARDEBT is the receivables aging extract.
var ARDEBT = Table{
	{CustomerID, []string{"NOMEN", "NO_PLGGN", "NOPEL"}},
	{OutstandingBalance, []string{"SALDO_TUNGGAKAN", "SALDO", "TUNGGAKAN"}},
	{Periode, []string{"PERIODE"}},
}

// MainBill is the issued-bill register.
var MainBill = Table{
	{CustomerID, []string{"NOMEN", "NO_PLGGN", "NOPEL"}},
	{BillDate, []string{"TGL_TAGIHAN", "TANGGAL"}},
	{TotalAmount, []string{"TOTAL_TAGIHAN", "NOMINAL"}},
	{PCEZBK, []string{"PCEZBK"}},
	{Tariff, []string{"TARIF", "KODETARIF"}},
	{Periode, []string{"PERIODE"}},
}

// SBRS is the meter-reading extract.
var SBRS = Table{
	{CustomerID, []string{"CMR_ACCOUNT", "NOMEN", "NO_PELANGGAN", "ACCOUNT"}},
	{Volume, []string{"SB_STAND", "VOLUME", "PAKAI", "STAND", "PEMAKAIAN"}},
	{Name, []string{"CMR_NAME", "NAMA", "NAMA_PELANGGAN"}},
	{Rayon, []string{"CMR_ROUTE", "RAYON", "RUTE"}},
	{Address, []string{"CMR_ADDRESS", "ALAMAT"}},
	{ReadMethod, []string{"READMETHOD", "READ_METHOD"}},
	{SkipStatus, []string{"SKIPSTS", "CMR_SKIP_CODE"}},
	{TroubleStatus, []string{"TROUBLESTS", "CMR_TRBL1_CODE"}},
	{SPMStatus, []string{"SPMSTS"}},
	{SpecialMessage, []string{"CMR_CHG_SPCL_MSG", "SPECIAL_MESSAGE", "KETERANGAN"}},
	{PriorReading, []string{"STAND_AWAL", "CMR_PREV_READ"}},
	{CurrentReading, []string{"STAND_AKHIR", "CMR_READING"}},
	{BillAmount, []string{"BILL_AMOUNT"}},
	{FollowUp, []string{"ANALISA_TINDAK_LANJUT"}},
	{Tag1, []string{"TAG1"}},
	{Tag2, []string{"TAG2"}},
}
