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
	"errors"

	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
)

type frame struct {
	retpc  int
	height int

	clear   bool // perform "shift and clear" in retsub
	args    int
	returns int
}

func opCallSub(cx *EvalContext) error {
	cx.callstack = append(cx.callstack, frame{
		retpc:  cx.pc + 1, // retpc is pc _after_ the callsub
		height: len(cx.stack),
	})
	cx.jump(cx.instr().Targets[0])
	return nil
}

func opRetSub(cx *EvalContext) error {
	top := len(cx.callstack) - 1
	if top < 0 {
		return errors.New("retsub with empty callstack")
	}
	topFrame := cx.callstack[top]
	if topFrame.clear { // proto was used to set up arg and return handling
		expect := topFrame.height + topFrame.returns
		if len(cx.stack) < expect { // Check general error case first, only diffentiate when error is assured
			switch {
			case len(cx.stack) < topFrame.height:
				return ledgercore.Rejectf(ledgercore.CodeStackUnderflow, "retsub executed with stack below frame. Did you pop args?")
			case len(cx.stack) == topFrame.height:
				return ledgercore.Rejectf(ledgercore.CodeStackUnderflow, "retsub executed with no return values on stack. proto declared %d", topFrame.returns)
			default:
				return ledgercore.Rejectf(ledgercore.CodeStackUnderflow, "retsub executed with %d return values on stack. proto declared %d",
					len(cx.stack)-topFrame.height, topFrame.returns)
			}
		}
		argstart := topFrame.height - topFrame.args
		copy(cx.stack[argstart:], cx.stack[len(cx.stack)-topFrame.returns:])
		cx.stack = cx.stack[:argstart+topFrame.returns]
	}
	cx.callstack = cx.callstack[:top]
	cx.jump(topFrame.retpc)
	return nil
}

func opProto(cx *EvalContext) error {
	if len(cx.callstack) == 0 {
		return errors.New("proto was executed without a callsub")
	}
	top := len(cx.callstack) - 1
	args := int(cx.instr().Uints[0])
	returns := int(cx.instr().Uints[1])
	if cx.callstack[top].clear {
		return errors.New("proto was executed twice in one subroutine")
	}
	if args > cx.callstack[top].height {
		return ledgercore.Rejectf(ledgercore.CodeStackUnderflow, "callsub to proto that requires %d args with stack height %d", args, cx.callstack[top].height)
	}
	cx.callstack[top].clear = true
	cx.callstack[top].args = args
	cx.callstack[top].returns = returns
	return nil
}

// frameIndex resolves a frame_dig/frame_bury offset against the current frame.
func (cx *EvalContext) frameIndex(name string) (int, error) {
	i := int64(cx.instr().Uints[0])
	top := len(cx.callstack) - 1
	if top < 0 {
		return 0, errors.New(name + " with empty callstack")
	}
	topFrame := cx.callstack[top]
	if !topFrame.clear {
		return 0, errors.New(name + " in subroutine with no proto")
	}
	idx := topFrame.height + int(i)
	if idx < 0 {
		return 0, ledgercore.Rejectf(ledgercore.CodeStackUnderflow, "%s %d in sub with %d args", name, i, topFrame.args)
	}
	if idx < topFrame.height-topFrame.args {
		return 0, ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "%s %d in sub with %d args", name, i, topFrame.args)
	}
	return idx, nil
}

func opFrameDig(cx *EvalContext) error {
	idx, err := cx.frameIndex("frame_dig")
	if err != nil {
		return err
	}
	if idx >= len(cx.stack) {
		return ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "frame_dig above stack")
	}
	cx.stack = append(cx.stack, cx.stack[idx])
	return nil
}

func opFrameBury(cx *EvalContext) error {
	last := len(cx.stack) - 1 // value
	idx, err := cx.frameIndex("frame_bury")
	if err != nil {
		return err
	}
	if idx >= last {
		return ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "frame_bury above stack")
	}
	cx.stack[idx] = cx.stack[last]
	cx.stack = cx.stack[:last] // pop value
	return nil
}
