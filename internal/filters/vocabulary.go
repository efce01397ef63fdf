package filters

import "sort"

// Locations maps a state code to the cities offered for it.
var Locations = map[string][]string{
	"SP": {"São Paulo", "Campinas", "Santos"},
	"RJ": {"Rio de Janeiro", "Niterói", "Búzios"},
	"MG": {"Belo Horizonte", "Uberlândia"},
	"PR": {"Curitiba", "Londrina"},
	"RS": {"Porto Alegre", "Caxias do Sul"},
	"BA": {"Salvador"},
	"DF": {"Brasília"},
}

var (
	Genders        = []string{"mulher", "homem", "trans"}
	HairColors     = []string{"Loira", "Morena", "Ruiva", "Preto", "Colorido"}
	BodyTypes      = []string{"Magro", "Mignon", "Fitness", "Curvilínea", "Plus Size"}
	Ethnicities    = []string{"Branca", "Negra", "Mulata", "Oriental", "Latina"}
	PaymentMethods = []string{"Dinheiro", "PIX", "Cartão de Crédito", "Cartão de Débito", "Crypto"}
	Services       = []string{
		"Massagem", "Namoradinha", "Jantar", "Viagens", "Fetiches",
		"Beijo na boca", "Oral até o final", "Oral com camisinha",
		"Dominatrix", "Casais", "Iniciantes",
	}
)

// StateCodes returns the known state codes in a stable order.
func StateCodes() []string {
	codes := make([]string, 0, len(Locations))
	for code := range Locations {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func KnownCity(state, city string) bool {
	return contains(Locations[state], city)
}

func contains(values []string, v string) bool {
	for _, item := range values {
		if item == v {
			return true
		}
	}
	return false
}
