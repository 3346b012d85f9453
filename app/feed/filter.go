package feed

import (
	"strings"
)

// blockedKeywords excludes death, violence, crime, political and
// disaster coverage. Terms are stored lowercase and accent-folded;
// candidate text goes through the same folding, so "homicídio" and
// "homicidio" both match.
var blockedKeywords = []string{
	// death and violence
	"assassinato",
	"assassinado",
	"assassina",
	"homicidio",
	"feminicidio",
	"latrocinio",
	"morte",
	"morre",
	"morto",
	"morta",
	"corpo encontrado",
	"cadaver",
	"baleado",
	"baleada",
	"esfaqueado",
	"tiroteio",
	"chacina",
	"violencia",
	"agressao",
	"estupro",
	// crime
	"crime",
	"criminoso",
	"assalto",
	"roubo",
	"furto",
	"trafico",
	"preso",
	"prisao",
	"foragido",
	"sequestro",
	"delegacia",
	"homem armado",
	// politics
	"eleicao",
	"eleitoral",
	"candidatura",
	"impeachment",
	"vereador",
	"deputado",
	"senador",
	"partido politico",
	// disasters
	"tragedia",
	"acidente",
	"desabamento",
	"deslizamento",
	"incendio",
	"enchente",
	"afogamento",
	"soterrado",
}

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Excluded reports whether the entry's title or summary matches the
// blocklist. Matching is case- and accent-insensitive. This runs before
// enrichment and image download, so rejected entries cost no network
// calls.
func (f *Filterer) Excluded(title, summary string) bool {
	text := foldAccents(strings.ToLower(title + " " + summary))

	for _, keyword := range blockedKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}

	return false
}
