package export

import (
	"fmt"
	"path/filepath"

	"github.com/ginjaninja78/tariff-reconciler/internal/types"
	"github.com/ginjaninja78/tariff-reconciler/pkg/utils"
)

// Template is an example input file for one mode and side.
type Template struct {
	Name    string
	Content string
}

var templates = map[types.Mode]map[types.Side]string{
	types.ModeTariff: {
		types.SideGoverning: "ORIGIN,DEST,SYS_CODE,SERVICE,TARIF,SLA_FORM,SLA_THRU\n" +
			"MES10612,AMI10000,MES10612AMI10000,REG23,59000,3,5",
		types.SideReference: "ORIGIN,DEST,SYS_CODE,Service REG,Tarif REG,sla form REG,sla thru REG\n" +
			"DJJ10000,AMI10000,DJJ10000AMI10000,REG23,107000,4,5",
	},
	types.ModeCost: {
		types.SideGoverning: "ORIGIN,DESTINASI,SERVICE,BT,BD,BD NEXT,BP,BP NEXT\n" +
			"AMI20100,BDJ10502,REG23,1500,3200,0,0,0",
		types.SideReference: "DESTINASI,ZONA,BP OKE23,BP NEXT OKE23,BT OKE23,BD OKE23,BP REG23,BP NEXT REG23,BT REG23,BD REG23,BD NEXT REG23\n" +
			"AMI10000,A,1500,0,1200,3200,2000,0,1500,3500,0",
	},
}

// TemplateFor returns the example file for mode and side.
func TemplateFor(mode types.Mode, side types.Side) (Template, error) {
	content, ok := templates[mode][side]
	if !ok {
		return Template{}, fmt.Errorf("template %s/%s: %w", mode, side, types.ErrNotFound)
	}

	name := "Template_Master_Data_" + mode.Label() + ".csv"
	if side == types.SideGoverning {
		name = "Template_Data_IT_" + mode.Label() + ".csv"
	}
	return Template{Name: name, Content: content}, nil
}

// WriteTemplate writes the example file for mode and side into dir and
// returns its path.
func WriteTemplate(dir string, mode types.Mode, side types.Side) (string, error) {
	tmpl, err := TemplateFor(mode, side)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, tmpl.Name)
	if err := utils.WriteFileAtomic(path, []byte(tmpl.Content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write template: %w", err)
	}
	return path, nil
}
