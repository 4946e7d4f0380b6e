// Copyright 2019 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/googlegenomics/mutex/internal/table"
)

type keyMap struct {
	Mutex       key.Binding
	CoOc        key.Binding
	Significant key.Binding
	Search      key.Binding
	Help        key.Binding
	Quit        key.Binding

	// Sort maps each sort binding to the key of the column it orders by.
	Sort []sortBinding
}

type sortBinding struct {
	key.Binding
	column string
}

func defaultKeyMap() keyMap {
	return keyMap{
		Mutex:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mutual exclusive")),
		CoOc:        key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "co-occurrence")),
		Significant: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "significant pairs")),
		Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search gene")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "column help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Sort: []sortBinding{
			{key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "sort p-value")), table.KeyPValue},
			{key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sort odds ratio")), table.KeyOddsRatio},
			{key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "sort association")), table.KeyAssociation},
			{key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "sort gene")), table.KeyGeneA},
		},
	}
}

// bindings returns the bindings listed in the footer.
func (k keyMap) bindings() []key.Binding {
	bindings := []key.Binding{k.Mutex, k.CoOc, k.Significant}
	for _, sort := range k.Sort {
		bindings = append(bindings, sort.Binding)
	}
	return append(bindings, k.Search, k.Help, k.Quit)
}
