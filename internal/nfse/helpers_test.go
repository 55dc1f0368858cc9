package nfse

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const homeCode = "3301009"

// invoiceXML renders an ABRASF-style document under the nfse prefix.
// Extra is inserted verbatim inside InfNfse.
func invoiceXML(number, serviceValue, taxValue, municipality, extra string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<nfse:CompNfse xmlns:nfse="http://www.abrasf.org.br/nfse.xsd">
  <nfse:Nfse>
    <nfse:InfNfse>
      <nfse:Numero>%s</nfse:Numero>
      <nfse:DataEmissao>2024-03-15T10:30:00</nfse:DataEmissao>
      <nfse:ValoresNfse>
        <nfse:ValorServicos>%s</nfse:ValorServicos>
        <nfse:ValorDeducoes>0.00</nfse:ValorDeducoes>
        <nfse:ValorIss>%s</nfse:ValorIss>
      </nfse:ValoresNfse>
      <nfse:PrestadorServico>
        <nfse:RazaoSocial>Clinica Exemplo Ltda</nfse:RazaoSocial>
      </nfse:PrestadorServico>
      <nfse:MunicipioIncidencia>%s</nfse:MunicipioIncidencia>
      %s
    </nfse:InfNfse>
  </nfse:Nfse>
</nfse:CompNfse>`, number, serviceValue, taxValue, municipality, extra)
}

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, content, 0o644))
	return p
}

type zipEntry struct {
	Name    string
	Content string
}

func buildZip(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		f, err := w.Create(e.Name)
		require.NoError(t, err)
		_, err = f.Write([]byte(e.Content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}
