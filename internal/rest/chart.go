package rest

import (
	"aspectInsight/domain"
	"bytes"
	"html/template"
)

type chartData struct {
	ListingID     int64
	TotalDays     int
	TotalBaseline int
	TotalAdvanced int
	Baseline      domain.TimelineSeries
	Advanced      domain.TimelineSeries
}

func newChartData(listingID int64, t domain.Timeline) chartData {
	return chartData{
		ListingID:     listingID,
		TotalDays:     max(len(t.Baseline.Dates), len(t.Advanced.Dates)),
		TotalBaseline: sum(t.Baseline.Counts),
		TotalAdvanced: sum(t.Advanced.Counts),
		Baseline:      t.Baseline,
		Advanced:      t.Advanced,
	}
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

// series values inside <script> are JSON-encoded by html/template
var chartTemplate = template.Must(template.New("chart").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Timeline - Listing {{.ListingID}}</title>
    <script src="https://cdn.plot.ly/plotly-2.27.0.min.js"></script>
    <style>
        body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; margin: 0; padding: 20px; background: #f5f5f5; }
        .container { max-width: 1800px; margin: 0 auto; background: white; padding: 30px; border-radius: 8px; }
        h1 { color: #333; text-align: center; font-size: 28px; }
        .stats { text-align: center; color: #666; margin: 15px 0 30px 0; font-size: 14px; }
    </style>
</head>
<body>
<div class="container">
    <h1>Timeline: Listing {{.ListingID}}</h1>
    <div class="stats">Days: {{.TotalDays}} | Baseline total: {{.TotalBaseline}} | Advanced total: {{.TotalAdvanced}}</div>
    <div id="chart"></div>
    <script>
        var datesBaseline = {{.Baseline.Dates}};
        var countsBaseline = {{.Baseline.Counts}};
        var scoresBaseline = {{.Baseline.Scores}};
        var datesAdvanced = {{.Advanced.Dates}};
        var countsAdvanced = {{.Advanced.Counts}};
        var scoresAdvanced = {{.Advanced.Scores}};

        function cumsum(arr) {
            var out = [], total = 0;
            for (var i = 0; i < arr.length; i++) { total += arr[i]; out.push(total); }
            return out;
        }

        function trace(x, y, name, color, axis, fillAlpha) {
            return {
                x: x, y: y, type: 'scatter', mode: 'lines', name: name,
                line: {color: color, width: 2, shape: 'hv'},
                fill: 'tozeroy', fillcolor: fillAlpha,
                xaxis: 'x' + axis, yaxis: 'y' + axis
            };
        }

        var traces = [
            trace(datesBaseline, cumsum(countsBaseline), 'Baseline (TF-IDF)', '#3498db', '', 'rgba(52, 152, 219, 0.2)'),
            trace(datesAdvanced, cumsum(countsAdvanced), 'Advanced (Embeddings)', '#e74c3c', '2', 'rgba(231, 76, 60, 0.2)'),
            trace(datesBaseline, scoresBaseline, 'Baseline Score', '#3498db', '3', 'rgba(52, 152, 219, 0.15)'),
            trace(datesAdvanced, scoresAdvanced, 'Advanced Score', '#e74c3c', '4', 'rgba(231, 76, 60, 0.15)')
        ];

        var layout = {
            grid: {rows: 4, columns: 1, pattern: 'independent', roworder: 'top to bottom'},
            height: 1200,
            showlegend: false,
            yaxis: {title: 'Cumulative Aspects (Baseline)'},
            yaxis2: {title: 'Cumulative Aspects (Advanced)'},
            yaxis3: {title: 'Score (Baseline)', zeroline: true},
            yaxis4: {title: 'Score (Advanced)', zeroline: true}
        };

        Plotly.newPlot('chart', traces, layout, {responsive: true, displaylogo: false});
    </script>
</div>
</body>
</html>
`))

var errorTemplate = template.Must(template.New("error").Parse(
	`<html><body><h1>Error</h1><pre>{{.}}</pre></body></html>`,
))

func errorPage(msg string) string {
	var buf bytes.Buffer
	if err := errorTemplate.Execute(&buf, msg); err != nil {
		return "<html><body><h1>Error</h1></body></html>"
	}
	return buf.String()
}
