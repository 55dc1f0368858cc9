package nfse

// Field names as they appear in ABRASF-style NFS-e documents.
const (
	FieldNumber          = "Numero"
	FieldIssueDate       = "DataEmissao"
	FieldServiceValue    = "ValorServicos"
	FieldTaxValue        = "ValorIss"
	FieldDeductionsValue = "ValorDeducoes"
	FieldProviderName    = "RazaoSocial"
	FieldIncidenceCode   = "MunicipioIncidencia"
	FieldStatus          = "Status"
	MarkerCancellation   = "Cancelamento"
)

// Field returns the text content of the first element named name.
//
// The first pass matches the local name under any namespace. The second pass
// matches the qualified name as written (e.g. "nfse:Numero"). An absent field
// yields "".
func (d *Document) Field(name string) string {
	if el := d.findLocal(name); el != nil {
		return el.text.String()
	}
	if el := d.findQualified(name); el != nil {
		return el.text.String()
	}
	return ""
}

// Has reports whether any element with the given local name exists, under any namespace.
func (d *Document) Has(name string) bool {
	return d.findLocal(name) != nil
}

func (d *Document) findLocal(name string) *element {
	for _, el := range d.elements {
		if el.local == name {
			return el
		}
	}
	return nil
}

func (d *Document) findQualified(name string) *element {
	for _, el := range d.elements {
		if el.qualifiedName() == name {
			return el
		}
	}
	return nil
}

// RawFields holds the untouched text of every recognised field.
type RawFields struct {
	Number          string
	IssueDate       string
	ServiceValue    string
	TaxValue        string
	DeductionsValue string
	ProviderName    string
	IncidenceCode   string
	StatusCode      string
	HasCancellation bool
}

// ExtractFields reads every recognised field from the document.
func ExtractFields(doc *Document) RawFields {
	return RawFields{
		Number:          doc.Field(FieldNumber),
		IssueDate:       doc.Field(FieldIssueDate),
		ServiceValue:    doc.Field(FieldServiceValue),
		TaxValue:        doc.Field(FieldTaxValue),
		DeductionsValue: doc.Field(FieldDeductionsValue),
		ProviderName:    doc.Field(FieldProviderName),
		IncidenceCode:   doc.Field(FieldIncidenceCode),
		StatusCode:      doc.Field(FieldStatus),
		HasCancellation: doc.Has(MarkerCancellation),
	}
}
