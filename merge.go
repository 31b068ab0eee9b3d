// seehuhn.de/go/fontgen - build OpenType fonts from FontForge sources
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package fontgen

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"seehuhn.de/go/sfnt/opentype/gtab"

	"seehuhn.de/go/fontgen/fea"
)

// MergeFeature reads OpenType substitution rules from the feature file
// fname and adds them to the font's GSUB table.  Include statements are
// resolved relative to the directory of the including file and may refer
// to parent directories.
//
// If an error occurs, the font is not modified.
func (f *Font) MergeFeature(fname string) error {
	abs, err := filepath.Abs(fname)
	if err != nil {
		return err
	}
	root := filepath.VolumeName(abs) + string(filepath.Separator)
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return err
	}

	file, err := fea.ParseFile(os.DirFS(root), filepath.ToSlash(rel))
	if err == nil {
		err = f.mergeFile(file)
	}
	if err != nil {
		return localPaths(root, err)
	}
	return nil
}

// localPaths converts the file names in errors from paths relative to the
// file system root back to paths of the local file system.
func localPaths(root string, err error) error {
	var feaErr *fea.Error
	var pathErr *fs.PathError
	switch {
	case errors.As(err, &feaErr) && feaErr.File != "":
		feaErr.File = filepath.Join(root, filepath.FromSlash(feaErr.File))
	case errors.As(err, &pathErr):
		pathErr.Path = filepath.Join(root, filepath.FromSlash(pathErr.Path))
	}
	return err
}

// MergeFeatureSource adds the substitution rules from the feature file
// contents src to the font's GSUB table.  The name is only used in error
// messages.  Include statements are not allowed.
//
// If an error occurs, the font is not modified.
func (f *Font) MergeFeatureSource(name string, src []byte) error {
	file, err := fea.Parse(name, src)
	if err != nil {
		return err
	}
	return f.mergeFile(file)
}

func (f *Font) mergeFile(file *fea.File) error {
	byName, err := f.glyphNames()
	if err != nil {
		return fmt.Errorf("%s: %w", f.name, err)
	}
	add, err := fea.Compile(file, byName)
	if err != nil {
		return err
	}
	merged, err := mergeGsub(f.info.Gsub, add)
	if err != nil {
		return err
	}
	f.info.Gsub = merged
	return nil
}

// mergeGsub returns a new GSUB table which contains the lookups and
// features of both old and add.  The lookups of add are placed after the
// lookups of old.  The features of the result are sorted by tag.
//
// The lookup tables are shared with old and add, and add is modified.
func mergeGsub(old, add *gtab.Info) (*gtab.Info, error) {
	if old == nil {
		old = &gtab.Info{}
	}
	offset := len(old.LookupList)
	if offset+len(add.LookupList) > 0xFFFF {
		return nil, fmt.Errorf("too many GSUB lookups")
	}
	if len(old.FeatureList)+len(add.FeatureList) > 0xFFFF {
		return nil, fmt.Errorf("too many GSUB features")
	}

	for _, l := range add.LookupList {
		shiftNested(l, gtab.LookupIndex(offset))
	}
	lookups := make(gtab.LookupList, 0, offset+len(add.LookupList))
	lookups = append(lookups, old.LookupList...)
	lookups = append(lookups, add.LookupList...)

	// Features are collected in the order old, add and then sorted by
	// tag.  perm maps the collected position to the sorted position.
	type entry struct {
		feature *gtab.Feature
		pos     int
	}
	var all []entry
	for _, feat := range old.FeatureList {
		all = append(all, entry{feature: feat, pos: len(all)})
	}
	for _, feat := range add.FeatureList {
		shifted := &gtab.Feature{
			Tag:     feat.Tag,
			Lookups: make([]gtab.LookupIndex, len(feat.Lookups)),
		}
		for i, idx := range feat.Lookups {
			shifted.Lookups[i] = idx + gtab.LookupIndex(offset)
		}
		all = append(all, entry{feature: shifted, pos: len(all)})
	}
	slices.SortStableFunc(all, func(a, b entry) int {
		switch {
		case a.feature.Tag < b.feature.Tag:
			return -1
		case a.feature.Tag > b.feature.Tag:
			return 1
		default:
			return 0
		}
	})
	perm := make([]gtab.FeatureIndex, len(all))
	features := make(gtab.FeatureListInfo, len(all))
	for i, e := range all {
		perm[e.pos] = gtab.FeatureIndex(i)
		features[i] = e.feature
	}

	scripts := gtab.ScriptListInfo{}
	addScripts := func(list gtab.ScriptListInfo, base int) {
		for tag, feat := range list {
			res := scripts[tag]
			if res == nil {
				res = &gtab.Features{Required: 0xFFFF}
				scripts[tag] = res
			}
			if feat.Required != 0xFFFF && res.Required == 0xFFFF {
				res.Required = perm[base+int(feat.Required)]
			}
			for _, idx := range feat.Optional {
				newIdx := perm[base+int(idx)]
				if !slices.Contains(res.Optional, newIdx) {
					res.Optional = append(res.Optional, newIdx)
				}
			}
		}
	}
	addScripts(old.ScriptList, 0)
	addScripts(add.ScriptList, len(old.FeatureList))
	for _, feat := range scripts {
		slices.Sort(feat.Optional)
	}

	return &gtab.Info{
		ScriptList:  scripts,
		FeatureList: features,
		LookupList:  lookups,
	}, nil
}

// shiftNested adds offset to the lookup indices referenced by the
// chained contextual subtables generated by [fea.Compile].
func shiftNested(l *gtab.LookupTable, offset gtab.LookupIndex) {
	for _, subtable := range l.Subtables {
		st, ok := subtable.(*gtab.ChainedSeqContext3)
		if !ok {
			continue
		}
		for i := range st.Actions {
			st.Actions[i].LookupListIndex += offset
		}
	}
}
