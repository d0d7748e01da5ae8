package availability

import (
	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/Domenick1991/tablebot/internal/textmatch"
)

type ZoneKeywords struct {
	Zone  domain.Zone
	Stems []string
}

// ZoneTable maps free-text keywords to seating zones. Entries are scanned in
// declared order and the first entry with a matching stem wins.
type ZoneTable struct {
	entries []ZoneKeywords
}

func NewZoneTable(entries ...ZoneKeywords) ZoneTable {
	cp := make([]ZoneKeywords, len(entries))
	for i, e := range entries {
		cp[i] = ZoneKeywords{Zone: e.Zone, Stems: append([]string(nil), e.Stems...)}
	}
	return ZoneTable{entries: cp}
}

func DefaultZoneTable() ZoneTable {
	return NewZoneTable(
		ZoneKeywords{Zone: domain.ZoneWindow, Stems: []string{"window", "view", "panoram", "окн", "вид", "панорам"}},
		ZoneKeywords{Zone: domain.ZoneQuiet, Stems: []string{"quiet", "calm", "peaceful", "тих", "спокой"}},
		ZoneKeywords{Zone: domain.ZoneVIP, Stems: []string{"vip", "important", "вип", "важн"}},
		ZoneKeywords{Zone: domain.ZoneStage, Stems: []string{"stage", "music", "live band", "сцен", "музык"}},
		ZoneKeywords{Zone: domain.ZoneBar, Stems: []string{"bar", "counter", "бар", "стойк"}},
		ZoneKeywords{Zone: domain.ZoneTerrace, Stems: []string{"terrace", "outdoor", "outside", "patio", "террас", "улиц"}},
		ZoneKeywords{Zone: domain.ZoneBanquet, Stems: []string{"banquet", "large group", "big group", "банкет", "больш"}},
		ZoneKeywords{Zone: domain.ZoneCenter, Stems: []string{"center", "centre", "main hall", "центр", "основн"}},
	)
}

func (z ZoneTable) Infer(text string) (domain.Zone, bool) {
	folded := textmatch.Fold(text)
	for _, e := range z.entries {
		if textmatch.AnyStem(folded, e.Stems) {
			return e.Zone, true
		}
	}
	return "", false
}
