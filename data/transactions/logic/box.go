// Copyright (C) 2019-2025 Algorand, Inc.
// This file is part of algo-builder-sub005
//
// algo-builder-sub005 is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// algo-builder-sub005 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with algo-builder-sub005.  If not, see <https://www.gnu.org/licenses/>.

package logic

import (
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
)

func (cx *EvalContext) availableBoxName(name []byte) error {
	if len(name) == 0 {
		return ledgercore.Reject(ledgercore.CodeBoxError, "box names may not be zero length")
	}
	if len(name) > cx.Proto.MaxAppKeyLen {
		return ledgercore.Rejectf(ledgercore.CodeBoxError, "name too long: length was %d, maximum is %d", len(name), cx.Proto.MaxAppKeyLen)
	}
	return cx.availableBox(string(name))
}

func opBoxCreate(cx *EvalContext) error {
	last := len(cx.stack) - 1 // size
	prev := last - 1          // name

	name := cx.stack[prev].Bytes
	size := cx.stack[last].Uint

	if err := cx.availableBoxName(name); err != nil {
		return err
	}
	if size > cx.Proto.MaxBoxSize {
		return ledgercore.Rejectf(ledgercore.CodeBoxError, "box size too large: %d, maximum is %d", size, cx.Proto.MaxBoxSize)
	}

	appAddr := cx.getApplicationAddress(cx.appID)
	existing, exists, err := cx.Ledger.GetBox(cx.appID, string(name))
	if err != nil {
		return err
	}
	if exists {
		if uint64(len(existing)) != size {
			return ledgercore.Rejectf(ledgercore.CodeBoxError, "box size mismatch %d %d", len(existing), size)
		}
		cx.stack[prev] = boolToSV(false)
	} else {
		if err := cx.Ledger.NewBox(cx.appID, string(name), make([]byte, size), appAddr); err != nil {
			return err
		}
		cx.stack[prev] = boolToSV(true)
	}
	cx.stack = cx.stack[:last]
	return nil
}

func opBoxExtract(cx *EvalContext) error {
	last := len(cx.stack) - 1 // length
	prev := last - 1          // start
	pprev := prev - 1         // name

	name := string(cx.stack[pprev].Bytes)
	start := cx.stack[prev].Uint
	length := cx.stack[last].Uint

	if err := cx.availableBoxName([]byte(name)); err != nil {
		return err
	}
	contents, exists, err := cx.Ledger.GetBox(cx.appID, name)
	if err != nil {
		return err
	}
	if !exists {
		return ledgercore.Rejectf(ledgercore.CodeBoxError, "no such box %#x", name)
	}

	bytes, err := extractCarefully(contents, start, length)
	cx.stack[pprev].Bytes = append([]byte{}, bytes...)
	cx.stack = cx.stack[:prev]
	return err
}

func opBoxReplace(cx *EvalContext) error {
	last := len(cx.stack) - 1 // replacement
	prev := last - 1          // start
	pprev := prev - 1         // name

	replacement := cx.stack[last].Bytes
	start := cx.stack[prev].Uint
	name := string(cx.stack[pprev].Bytes)

	if err := cx.availableBoxName([]byte(name)); err != nil {
		return err
	}
	contents, exists, err := cx.Ledger.GetBox(cx.appID, name)
	if err != nil {
		return err
	}
	if !exists {
		return ledgercore.Rejectf(ledgercore.CodeBoxError, "no such box %#x", name)
	}

	bytes, err := replaceCarefully(contents, replacement, start)
	if err != nil {
		return err
	}
	cx.stack = cx.stack[:pprev]
	return cx.Ledger.SetBox(cx.appID, name, bytes)
}

func opBoxDel(cx *EvalContext) error {
	last := len(cx.stack) - 1 // name
	name := string(cx.stack[last].Bytes)

	if err := cx.availableBoxName([]byte(name)); err != nil {
		return err
	}
	appAddr := cx.getApplicationAddress(cx.appID)
	existed, err := cx.Ledger.DelBox(cx.appID, name, appAddr)
	if err != nil {
		return err
	}
	cx.stack[last] = boolToSV(existed)
	return nil
}

func opBoxLen(cx *EvalContext) error {
	last := len(cx.stack) - 1 // name
	name := string(cx.stack[last].Bytes)

	if err := cx.availableBoxName([]byte(name)); err != nil {
		return err
	}
	contents, exists, err := cx.Ledger.GetBox(cx.appID, name)
	if err != nil {
		return err
	}

	cx.stack[last] = stackValue{Uint: uint64(len(contents))}
	cx.stack = append(cx.stack, boolToSV(exists))
	return nil
}

func opBoxGet(cx *EvalContext) error {
	last := len(cx.stack) - 1 // name
	name := string(cx.stack[last].Bytes)

	if err := cx.availableBoxName([]byte(name)); err != nil {
		return err
	}
	contents, exists, err := cx.Ledger.GetBox(cx.appID, name)
	if err != nil {
		return err
	}
	if len(contents) > MaxStringSize {
		return ledgercore.Rejectf(ledgercore.CodeMaxLenExceeded, "box_get produced a too big (%d) byte-array", len(contents))
	}
	cx.stack[last].Bytes = append([]byte{}, contents...) // not nil, even if box doesn't exist
	cx.stack = append(cx.stack, boolToSV(exists))
	return nil
}

func opBoxPut(cx *EvalContext) error {
	last := len(cx.stack) - 1 // value
	prev := last - 1          // name

	value := cx.stack[last].Bytes
	name := string(cx.stack[prev].Bytes)

	if err := cx.availableBoxName([]byte(name)); err != nil {
		return err
	}

	cx.stack = cx.stack[:prev]

	// This could be a lot more efficient, but it's not clear it'll matter
	contents, exists, err := cx.Ledger.GetBox(cx.appID, name)
	if err != nil {
		return err
	}

	if exists {
		/* the replacement must match existing size */
		if len(contents) != len(value) {
			return ledgercore.Rejectf(ledgercore.CodeBoxError, "attempt to box_put wrong size %d != %d", len(contents), len(value))
		}
		return cx.Ledger.SetBox(cx.appID, name, value)
	}

	/* The box did not exist, so create it. */
	appAddr := cx.getApplicationAddress(cx.appID)
	return cx.Ledger.NewBox(cx.appID, name, value, appAddr)
}
