/*
 *  Copyright (C) 2019 ambr authors
 *
 *  This file is part of the ambr library.
 *
 *  The ambr library is free software: you can redistribute it and/or modify
 *  it under the terms of the GNU General Public License as published by
 *  the Free Software Foundation, either version 3 of the License, or
 *  (at your option) any later version.
 *
 *  The ambr library is distributed in the hope that it will be useful,
 *  but WITHOUT ANY WARRANTY; without even the implied warranty of
 *  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 *  GNU General Public License for more details.
 *
 *  You should have received a copy of the GNU General Public License
 *  along with the ambr library.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package log

import (
	"fmt"

	"github.com/ambrchain/ambr/utils/logging"
	"github.com/sirupsen/logrus"
)

//
// key/value logging API: log.Info("msg", "key1", v1, "key2", v2)
//

func Trace(msg string, ctx ...interface{}) {
	entry(ctx).Trace(msg)
}

func Debug(msg string, ctx ...interface{}) {
	entry(ctx).Debug(msg)
}

func Info(msg string, ctx ...interface{}) {
	entry(ctx).Info(msg)
}

func Warn(msg string, ctx ...interface{}) {
	entry(ctx).Warn(msg)
}

func Error(msg string, ctx ...interface{}) {
	entry(ctx).Error(msg)
}

// Crit logs and exits the process.
func Crit(msg string, ctx ...interface{}) {
	entry(ctx).Fatal(msg)
}

//
// logging API with printf format
//

func Debugf(format string, args ...interface{}) {
	logging.Logger.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	logging.Logger.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	logging.Logger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	logging.Logger.Errorf(format, args...)
}

// entry turns alternating key/value pairs into logrus fields. A trailing
// value without a key is recorded under "extra".
func entry(ctx []interface{}) *logrus.Entry {
	fields := make(logrus.Fields, len(ctx)/2+1)
	for i := 0; i < len(ctx); i += 2 {
		if i+1 >= len(ctx) {
			fields["extra"] = ctx[i]
			break
		}
		key, ok := ctx[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", ctx[i])
		}
		fields[key] = ctx[i+1]
	}
	return logging.Logger.WithFields(fields)
}
