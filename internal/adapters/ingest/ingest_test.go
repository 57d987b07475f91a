package ingest

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	"github.com/okian/leadtime/internal/domain/analysis"
	"github.com/okian/leadtime/internal/domain/model"
)

const sampleCSV = `Order_ID,Supplier,Order_Date,Expected_Delivery_Date,Actual_Delivery_Date,Product_Category,Transportation_Mode,Supplier_Location,Disruption_Type,Customer_Demand,Order_Quantity
ORD001,Supplier A,2024-01-15,2024-01-25,2024-01-28,Electronics,Air,China,Weather,100,120

ORD002,"Supplier B",2024-01-20,2024-02-05,2024-02-03,Textiles,Sea,India,None,200,180
`

func TestReadCSV(t *testing.T) {
	Convey("Given a procurement CSV", t, func() {
		ds, err := ReadCSV(strings.NewReader(sampleCSV))

		Convey("Then every row becomes a record with string values", func() {
			So(err, ShouldBeNil)
			So(ds.Len(), ShouldEqual, 2)
			So(ds.Columns(), ShouldResemble, model.ProcurementColumns())
			So(ds.At(1).Value(model.FieldSupplier), ShouldEqual, "Supplier B")
			So(ds.At(1).Value(model.FieldDisruptionType), ShouldEqual, "None")
			So(ds.At(0).Value(model.FieldCustomerDemand), ShouldEqual, "100")
		})

		Convey("Then it matches the built-in sample", func() {
			So(ds.Fingerprint(), ShouldEqual, model.SampleDataset().Fingerprint())
		})
	})

	Convey("Given a CSV without some columns", t, func() {
		ds, err := ReadCSV(strings.NewReader("Supplier,Order_Date\nA,2024-01-01\n"))

		Convey("Then ingest still succeeds", func() {
			So(err, ShouldBeNil)
			So(ds.Len(), ShouldEqual, 1)
			_, ok := ds.At(0).Get(model.FieldActualDelivery)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given empty or header-only input", t, func() {
		for _, in := range []string{"", "  \n\n", "Supplier,Order_Date\n"} {
			_, err := ReadCSV(strings.NewReader(in))
			So(errors.Is(err, ErrEmptyInput), ShouldBeTrue)
		}
	})

	Convey("Given ragged rows", t, func() {
		_, err := ReadCSV(strings.NewReader("a,b\n1,2,3\n"))

		Convey("Then the input is malformed", func() {
			So(errors.Is(err, ErrMalformed), ShouldBeTrue)
		})
	})
}

func TestReadXLSX(t *testing.T) {
	Convey("Given a workbook with a blank row and a short row", t, func() {
		f := excelize.NewFile()
		rows := [][]interface{}{
			{"Supplier", "Order_Date", "Actual_Delivery_Date"},
			{"A", "2024-01-15", "2024-01-28"},
			{},
			{"B", "2024-01-20"},
		}
		for i, row := range rows {
			for j, v := range row {
				cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
				So(f.SetCellValue("Sheet1", cell, v), ShouldBeNil)
			}
		}
		var buf bytes.Buffer
		So(f.Write(&buf), ShouldBeNil)
		data := buf.Bytes()

		Convey("When reading the first sheet", func() {
			ds, err := ReadXLSX(bytes.NewReader(data), "")

			Convey("Then blank rows are skipped and short rows padded", func() {
				So(err, ShouldBeNil)
				So(ds.Len(), ShouldEqual, 2)
				So(ds.At(0).Value(model.FieldSupplier), ShouldEqual, "A")
				v, ok := ds.At(1).Get(model.FieldActualDelivery)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, "")
			})
		})

		Convey("When reading through the dispatcher", func() {
			ds, err := Read("orders.XLSX", bytes.NewReader(data), "Sheet1")

			Convey("Then the format follows the extension", func() {
				So(err, ShouldBeNil)
				So(ds.Len(), ShouldEqual, 2)
			})
		})

		Convey("When the sheet does not exist", func() {
			_, err := ReadXLSX(bytes.NewReader(data), "Missing")

			Convey("Then the input is malformed", func() {
				So(errors.Is(err, ErrMalformed), ShouldBeTrue)
			})
		})
	})

	Convey("Given bytes that are not a workbook", t, func() {
		_, err := ReadXLSX(strings.NewReader("not a zip"), "")
		So(errors.Is(err, ErrMalformed), ShouldBeTrue)
	})
}

func TestReadXLSXDateCells(t *testing.T) {
	Convey("Given a workbook whose dates are stored as Excel dates", t, func() {
		f := excelize.NewFile()
		rows := [][]interface{}{
			{model.FieldSupplier, model.FieldOrderDate, model.FieldActualDelivery, model.FieldOrderQuantity},
			{"Supplier A", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC), 120},
			{"Supplier B", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 15, 10, 30, 0, 0, time.UTC), 80},
		}
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			So(f.SetSheetRow("Sheet1", cell, &row), ShouldBeNil)
		}
		var buf bytes.Buffer
		So(f.Write(&buf), ShouldBeNil)

		ds, err := ReadXLSX(bytes.NewReader(buf.Bytes()), "")
		So(err, ShouldBeNil)

		Convey("Then dates are read as ISO text whatever their display format", func() {
			So(ds.At(0).Value(model.FieldOrderDate), ShouldEqual, "2024-01-15")
			So(ds.At(0).Value(model.FieldActualDelivery), ShouldEqual, "2024-01-28")
			So(ds.At(1).Value(model.FieldOrderDate), ShouldEqual, "2024-02-01")
			So(ds.At(1).Value(model.FieldActualDelivery), ShouldEqual, "2024-02-15 10:30:00")
		})

		Convey("Then plain numbers are left alone", func() {
			So(ds.At(0).Value(model.FieldOrderQuantity), ShouldEqual, "120")
		})

		Convey("Then lead times can be computed from them", func() {
			ans := analysis.AnswerQuestion(ds, analysis.CanonicalQuestions()[0])
			So(ans.Status, ShouldEqual, analysis.StatusAnswered)
			So(ans.Key, ShouldEqual, "Supplier B")
			So(ans.Mean, ShouldEqual, 15.0)
		})
	})
}

func TestIsDateFormatCode(t *testing.T) {
	Convey("Given custom number formats", t, func() {
		So(isDateFormatCode("yyyy-mm-dd"), ShouldBeTrue)
		So(isDateFormatCode("[h]:mm:ss"), ShouldBeTrue)
		So(isDateFormatCode("#,##0.00"), ShouldBeFalse)
		So(isDateFormatCode(`0.0 "days"`), ShouldBeFalse)
		So(isDateFormatCode("[$-409]#,##0"), ShouldBeFalse)
	})
}

func TestFormatOf(t *testing.T) {
	Convey("Given file names", t, func() {
		f, err := FormatOf("data.csv")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, FormatCSV)

		_, err = Read("data.json", strings.NewReader("{}"), "")
		So(errors.Is(err, ErrUnsupportedFormat), ShouldBeTrue)
	})
}
