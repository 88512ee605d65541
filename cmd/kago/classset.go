package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/caffeineduck/kago/prepare"
	"github.com/caffeineduck/kago/typeinfo"
)

// classSet is the YAML format for a feed of raw class units.
//
//	classes:
//	  - name: com/example/Color
//	    super: java/lang/Enum
//	    access: [enum, final]
//	    constants: [RED, GREEN, BLUE]
//	  - name: com/example/Point
//	    fields:
//	      - {name: x, descriptor: I}
//	    methods:
//	      - {name: toString, descriptor: "()Ljava/lang/String;"}
type classSet struct {
	Classes []classEntry `yaml:"classes"`
}

type classEntry struct {
	Name       string        `yaml:"name"`
	Super      string        `yaml:"super"`
	Interfaces []string      `yaml:"interfaces"`
	Access     []string      `yaml:"access"`
	Fields     []memberEntry `yaml:"fields"`
	Methods    []memberEntry `yaml:"methods"`
	Constants  []string      `yaml:"constants"`
}

type memberEntry struct {
	Name       string `yaml:"name"`
	Descriptor string `yaml:"descriptor"`
}

func loadClassSet(path string) ([]prepare.Class, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read class set: %w", err)
	}
	var set classSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse class set %s: %w", path, err)
	}

	classes := make([]prepare.Class, 0, len(set.Classes))
	for _, entry := range set.Classes {
		flags, err := parseAccess(entry.Access)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", entry.Name, err)
		}
		c := prepare.Class{
			Name:       entry.Name,
			Super:      entry.Super,
			Interfaces: entry.Interfaces,
			Flags:      flags,
			Constants:  entry.Constants,
		}
		for _, f := range entry.Fields {
			c.Fields = append(c.Fields, typeinfo.Member{Name: f.Name, Descriptor: f.Descriptor})
		}
		for _, m := range entry.Methods {
			c.Methods = append(c.Methods, typeinfo.Member{Name: m.Name, Descriptor: m.Descriptor})
		}
		classes = append(classes, c)
	}
	return classes, nil
}

func parseAccess(access []string) (typeinfo.Flag, error) {
	var flags typeinfo.Flag
	for _, a := range access {
		switch a {
		case "interface":
			flags |= typeinfo.FlagInterface
		case "abstract":
			flags |= typeinfo.FlagAbstract
		case "final":
			flags |= typeinfo.FlagFinal
		case "enum":
			flags |= typeinfo.FlagEnum
		default:
			return 0, fmt.Errorf("unknown access flag %q", a)
		}
	}
	return flags, nil
}
